package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"newsharvest/internal/logging"
)

func TestSwaggerServer_New(t *testing.T) {
	swaggerServer := NewSwaggerServer(true, logging.Discard())
	if swaggerServer == nil {
		t.Fatal("Expected Swagger server to be created, got nil")
	}
	if !swaggerServer.enabled {
		t.Error("Expected Swagger server to be enabled")
	}

	swaggerServer = NewSwaggerServer(false, logging.Discard())
	if swaggerServer.enabled {
		t.Error("Expected Swagger server to be disabled")
	}
}

func TestSwaggerServer_RegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewSwaggerServer(true, logging.Discard()).RegisterRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/swagger/index.html", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for swagger ui, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/docs", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusMovedPermanently {
		t.Errorf("Expected status 301, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/swagger/index.html" {
		t.Errorf("Expected redirect to swagger ui, got %q", loc)
	}
}

func TestSwaggerServer_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewSwaggerServer(false, logging.Discard()).RegisterRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/swagger/index.html", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when disabled, got %d", w.Code)
	}
}
