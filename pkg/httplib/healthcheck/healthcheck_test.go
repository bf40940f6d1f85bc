package healthcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck_Handler(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	testCases := []struct {
		name         string
		probes       map[string]Probe
		path         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "healthy",
			path:         "/health",
			expectedCode: http.StatusOK,
			expectedBody: "ok\n",
		},
		{
			name: "failing probe",
			probes: map[string]Probe{
				"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
			},
			path:         "/health",
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: "redis: dial tcp: refused\n",
		},
		{
			name:         "passes other paths through",
			path:         "/query",
			expectedCode: http.StatusTeapot,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)

			HealthCheck{Probes: tc.probes}.Handler(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedCode, rec.Code)
			if tc.expectedBody != "" {
				assert.Equal(t, tc.expectedBody, rec.Body.String())
			}
		})
	}
}
