package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms/config"
	"github.com/tendant/simple-cms/pkg/simplecms/metrics"
)

func TestHandler(t *testing.T) {
	seedPath := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(`
contentTypes:
  - name: Article
    fields:
      - name: title
        fieldType: TEXT
`), 0o600))

	cfg, err := config.Load(config.WithEnvironment("testing"), config.WithEventLogging(false))
	require.NoError(t, err)
	logger := newLogger(cfg)

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewSink(reg)
	require.NoError(t, err)
	cfg.EventSinks = append(cfg.EventSinks, sink)

	ctx := context.Background()
	svc, err := cfg.BuildService(ctx)
	require.NoError(t, err)
	require.NoError(t, applySeed(ctx, svc, seedPath, logger))

	h := newHandler(cfg, svc, reg, logger)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Success bool `json:"success"`
		Data    struct {
			Status  string `json:"status"`
			Service string `json:"service"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Success)
	assert.Equal(t, "simple-cms", status.Data.Service)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/article", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "simplecms_content_type_events_total"))
}
