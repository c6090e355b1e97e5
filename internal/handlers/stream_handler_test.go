package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/voxbridge/voxbridge/internal/config"
	"github.com/voxbridge/voxbridge/internal/domains/session/drivers"
	"github.com/voxbridge/voxbridge/pkg/Logger"
)

func TestMediaStreamRejectsUnknownSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewStreamHandler(drivers.NewMemoryStore(), nil, nil, &config.Settings{}, "", Logger.NewNop())
	r := gin.New()
	r.GET("/media-stream/session/:session_id/:phone_number/:introduction", h.HandleMediaStream)

	req := httptest.NewRequest(http.MethodGet, "/media-stream/session/ghost/%2B15550001111/Hello", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
