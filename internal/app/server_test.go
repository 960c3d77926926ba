package app

import (
	"net/http/httptest"
	"testing"

	"citywatch/alertmedia/internal/handler"

	"github.com/gorilla/handlers"
)

func newTestServer() *Server {
	// Route registration does not touch the services, so zero-value handlers
	// are enough to exercise the router.
	mediaHandler := &handler.MediaHandler{}
	transcriptionHandler := &handler.TranscriptionHandler{}
	workerHandler := &handler.WorkerHandler{}
	return NewServer(mediaHandler, transcriptionHandler, workerHandler, nil)
}

func TestCORSPreflightRequest(t *testing.T) {
	server := newTestServer()

	// Create a test OPTIONS preflight request
	req := httptest.NewRequest("OPTIONS", "/alerts/1/media", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	rr := httptest.NewRecorder()

	// Apply CORS middleware to the router (same as in Run method)
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Upload-Token", "X-Checksum-Sha256", "X-Requested-With"}),
	)
	corsHandler := cors(server.router)

	corsHandler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %v, want *", got)
	}

	allowHeaders := rr.Header().Get("Access-Control-Allow-Headers")
	if allowHeaders == "" {
		t.Error("Access-Control-Allow-Headers should not be empty for OPTIONS request")
	}
}

func TestCORSWithActualRequest(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "http://example.com")

	rr := httptest.NewRecorder()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Upload-Token", "X-Checksum-Sha256", "X-Requested-With"}),
	)
	corsHandler := cors(server.router)

	corsHandler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %v, want *", got)
	}
	if rr.Code != 200 {
		t.Errorf("ping status = %d, want 200", rr.Code)
	}
}
