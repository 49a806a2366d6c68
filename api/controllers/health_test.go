package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supermarket-backend/pkg/config"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg)(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dev", resp.Header().Get("X-Supermarket-Env"))
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	tests := []struct {
		name   string
		db     Pinger
		redis  Pinger
		status int
		redisV string
	}{
		{"db only", stubPinger{}, nil, http.StatusOK, "disabled"},
		{"db and redis", stubPinger{}, stubPinger{}, http.StatusOK, "ok"},
		{"db down", stubPinger{err: errors.New("refused")}, nil, http.StatusServiceUnavailable, ""},
		{"redis down", stubPinger{}, stubPinger{err: errors.New("refused")}, http.StatusServiceUnavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			HealthReady(cfg, logger.Nop(), tt.db, tt.redis)(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			require.Equal(t, tt.status, resp.Code)
			if tt.status != http.StatusOK {
				return
			}
			var body struct {
				Data struct {
					Checks map[string]string `json:"checks"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			assert.Equal(t, tt.redisV, body.Data.Checks["redis"])
		})
	}
}
