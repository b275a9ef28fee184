package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xraph/injector/injecthttp"
	"github.com/xraph/injector/internal/demo"
)

func TestDemoHandler(t *testing.T) {
	c, err := demo.NewContainer("debug")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(injecthttp.Middleware(c))
	r.Get("/demo", demoHandler(c))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/demo", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "B in scope? true")
	assert.Contains(t, w.Body.String(), "C debug uses B debug uses A debug")
}

func TestServicesHandler(t *testing.T) {
	c, err := demo.NewContainer("release")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	servicesHandler(c)(w, httptest.NewRequest(http.MethodGet, "/services", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var views []serviceView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&views))
	require.Len(t, views, 3)

	assert.Equal(t, demo.IDServiceA, views[0].ID)
	assert.Equal(t, "Singleton", views[0].Lifestyle)
	assert.Equal(t, "func", views[2].Factory)
}

func TestRunOnce(t *testing.T) {
	for _, name := range demo.ProfileNames {
		assert.NoError(t, runOnce(name, zap.NewNop()), name)
	}

	assert.Error(t, runOnce("staging", zap.NewNop()))
}
