package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpgraderCheckOrigin(t *testing.T) {
	up := newUpgrader([]string{"http://localhost:3000/", "https://app.tripgather.io"})

	cases := map[string]bool{
		"":                          true,
		"http://localhost:3000":     true,
		"https://app.tripgather.io": true,
		"https://evil.example":      false,
	}
	for origin, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		assert.Equal(t, want, up.CheckOrigin(req), origin)
	}
}

func TestRealtimeConnectRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	RealtimeConnect(nil, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
