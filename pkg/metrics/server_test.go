package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	var tests = []struct {
		name         string
		status       StatusFunc
		expectedCode int
		expectedBody string
	}{
		{
			name:         "ok",
			status:       func() (interface{}, error) { return map[string]bool{"ok": true}, nil },
			expectedCode: http.StatusOK,
			expectedBody: `{"ok":true}`,
		},
		{
			name:         "failing",
			status:       func() (interface{}, error) { return nil, errors.New("no schedule") },
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: `{"error":"no schedule"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Router(tt.status).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedBody, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	Runs.WithLabelValues(ResultUnchanged).Inc()

	w := httptest.NewRecorder()
	Router(func() (interface{}, error) { return nil, nil }).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `waterheater_reconcile_runs_total{result="unchanged"}`)
}
