package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/LittleKatyusha/Sapi/auth"
	"github.com/LittleKatyusha/Sapi/httpx"
	"github.com/LittleKatyusha/Sapi/i18n"
	"github.com/LittleKatyusha/Sapi/internal/models"
	"github.com/LittleKatyusha/Sapi/internal/pid"
	"github.com/LittleKatyusha/Sapi/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db     *gorm.DB
	tokens *auth.Tokens
	pids   *pid.Codec
}

func NewAuthHandler(db *gorm.DB, tokens *auth.Tokens, pids *pid.Codec) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, pids: pids}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Login exchanges username and password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, i18n.T(lang, "invalid_json"), nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	v := validation.Violations{}
	validation.Required("username", req.Username, v)
	validation.Required("password", req.Password, v)
	if !v.Empty() {
		writeViolations(w, lang, v)
		return
	}

	var user models.User
	err := h.db.Where("username = ? AND aktif = ?", req.Username, true).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("login lookup: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, i18n.T(lang, "server_error"), nil)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		httpx.JSONError(w, http.StatusUnauthorized, i18n.T(lang, "invalid_login"), nil)
		return
	}

	token, exp, err := h.tokens.Issue(auth.User{ID: user.ID, Username: user.Username, Role: user.Role})
	if err != nil {
		log.Printf("issue token: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, i18n.T(lang, "server_error"), nil)
		return
	}
	Decorate(h.pids, &user)
	httpx.OK(w, http.StatusOK, "", LoginResponse{Token: token, ExpiresAt: exp, User: user})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, i18n.T(lang, "unauthenticated"), nil)
		return
	}
	var user models.User
	if err := h.db.First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, i18n.T(lang, "not_found"), nil)
		return
	}
	Decorate(h.pids, &user)
	httpx.OK(w, http.StatusOK, "", user)
}

// UserExists is the token verifier: disabled or deleted accounts lose access.
func UserExists(db *gorm.DB) auth.UserVerifier {
	return func(_ context.Context, uid uint) bool {
		var n int64
		db.Model(&models.User{}).Where("id = ? AND aktif = ?", uid, true).Count(&n)
		return n > 0
	}
}
