package handlers

import (
	"net/http"

	"github.com/LittleKatyusha/Sapi/httpx"
	"github.com/LittleKatyusha/Sapi/internal/db"
	"gorm.io/gorm"
)

// Health is a liveness probe.
func Health(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings the database.
func Ready(conn *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Ping(conn); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "db": err.Error()})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "ok"})
	}
}
