package main

import (
	"fmt"
	"net/http"

	"github.com/LittleKatyusha/Sapi/auth"
	"github.com/LittleKatyusha/Sapi/internal/config"
	"github.com/LittleKatyusha/Sapi/internal/handlers"
	"github.com/LittleKatyusha/Sapi/internal/pid"
	"github.com/LittleKatyusha/Sapi/internal/policy"
	"github.com/LittleKatyusha/Sapi/internal/server"
	"gorm.io/gorm"
)

// NewApp builds the API handler from configuration.
func NewApp(dbConn *gorm.DB, cfg *config.Config) (http.Handler, error) {
	codec, err := pid.New(cfg.Security.PIDSecret)
	if err != nil {
		return nil, fmt.Errorf("pid codec: %w", err)
	}
	return server.New(dbConn, server.Deps{
		Tokens: auth.NewTokens(cfg.Security.JWTSecret, cfg.Security.TokenTTL),
		PIDs:   codec,
		Roles:  policy.DefaultRoles(),
		Uploads: &handlers.Uploads{
			Dir:      cfg.Storage.UploadDir,
			URLPath:  "/uploads/",
			MaxBytes: int64(cfg.Storage.MaxUploadMB) << 20,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}), nil
}
