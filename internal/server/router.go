// Package server wires the API routes.
package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/LittleKatyusha/Sapi/auth"
	"github.com/LittleKatyusha/Sapi/httpx"
	"github.com/LittleKatyusha/Sapi/i18n"
	"github.com/LittleKatyusha/Sapi/internal/handlers"
	"github.com/LittleKatyusha/Sapi/internal/pid"
	"github.com/LittleKatyusha/Sapi/internal/policy"
	"gorm.io/gorm"
)

// Deps are the services the router needs besides the database.
type Deps struct {
	Tokens  *auth.Tokens
	PIDs    *pid.Codec
	Roles   policy.Roles
	Uploads *handlers.Uploads
	// AllowedOrigins enables CORS for browser front-ends; "*" allows any.
	AllowedOrigins []string
}

// New constructs the root handler with all routes and middlewares applied.
func New(db *gorm.DB, d Deps) http.Handler {
	if d.Roles == nil {
		d.Roles = policy.DefaultRoles()
	}
	d.Tokens.SetUserVerifier(handlers.UserExists(db))
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("GET /healthz", handlers.Ready(db))

	requireAuth := d.Tokens.RequireAuth(unauthenticated)

	ah := handlers.NewAuthHandler(db, d.Tokens, d.PIDs)
	mux.HandleFunc("POST /api/auth/login", ah.Login)
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(ah.Me)))

	if d.Uploads != nil && d.Uploads.URLPath != "" {
		mux.Handle("GET "+d.Uploads.URLPath, http.StripPrefix(d.Uploads.URLPath, http.FileServer(http.Dir(d.Uploads.Dir))))
	}

	for _, m := range handlers.Resources(db, d.PIDs, d.Uploads) {
		base := "/api/" + m.Path + "/"
		guard := func(action policy.Action, h http.HandlerFunc) http.Handler {
			return requireAuth(d.Roles.RequirePermission(m.Permission, action)(h))
		}
		e := m.Endpoints
		mux.Handle("GET "+base+"data", guard(policy.ActionList, e.List))
		mux.Handle("POST "+base+"store", guard(policy.ActionCreate, e.Store))
		mux.Handle("POST "+base+"update", guard(policy.ActionUpdate, e.Update))
		mux.Handle("POST "+base+"hapus", guard(policy.ActionDelete, e.Delete))
		mux.Handle("POST "+base+"delete", guard(policy.ActionDelete, e.Delete))
		mux.Handle("POST "+base+"show", guard(policy.ActionView, e.Show))
		mux.Handle("POST "+base+"detail", guard(policy.ActionView, e.Show))
	}

	var h http.Handler = mux
	h = d.Tokens.Middleware(h)
	h = withLanguage(h)
	h = withCORS(d.AllowedOrigins, h)
	return withRecover(h)
}

func unauthenticated(w http.ResponseWriter, r *http.Request) {
	httpx.JSONError(w, http.StatusUnauthorized, i18n.T(i18n.LangFromContext(r.Context()), "unauthenticated"), nil)
}

// withLanguage stores the request language (?lang= over Accept-Language).
func withLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := r.URL.Query().Get("lang")
		if lang != "id" && lang != "en" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

func withCORS(origins []string, next http.Handler) http.Handler {
	if len(origins) == 0 {
		return next
	}
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[strings.TrimSpace(o)] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept-Language")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				log.Printf("panic %s %s: %v", r.Method, r.URL.Path, v)
				httpx.JSONError(w, http.StatusInternalServerError, i18n.T(i18n.LangFromContext(r.Context()), "server_error"), nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
