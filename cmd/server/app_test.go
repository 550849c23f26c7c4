package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LittleKatyusha/Sapi/internal/config"
	"github.com/LittleKatyusha/Sapi/internal/db"
)

func TestNewAppServesAPI(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file:"+t.Name()+"?mode=memory&cache=shared")
	t.Setenv("UPLOAD_DIR", t.TempDir())
	t.Setenv("MIGRATIONS", "")
	cfg := config.Load()
	conn, err := db.Open(cfg.Database)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := migrate(cfg, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	app, err := NewApp(conn, cfg)
	if err != nil {
		t.Fatal(err)
	}
	h := withLogging(app)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/master/supplier/data", http.StatusUnauthorized},
		{http.MethodPost, "/api/auth/login", http.StatusBadRequest},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
		if rr.Code != tt.want {
			t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rr.Code, tt.want, rr.Body.String())
		}
	}
}

func TestNewAppRejectsEmptyPIDSecret(t *testing.T) {
	cfg := config.Load()
	cfg.Security.PIDSecret = ""
	if _, err := NewApp(nil, cfg); err == nil {
		t.Fatal("expected error")
	}
}

func TestStatusRecorder(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: rr, status: http.StatusOK}
	rec.WriteHeader(http.StatusTeapot)
	if rec.status != http.StatusTeapot || rr.Code != http.StatusTeapot {
		t.Errorf("status %d / %d", rec.status, rr.Code)
	}
}
