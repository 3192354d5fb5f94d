package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderErrorPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.RenderStatus(rr, http.StatusServiceUnavailable, "pages/error.html", TemplateData{
		Title: "Data Unavailable",
		Data:  ErrorPage{Status: 503, Title: "Data Unavailable", Detail: "could not reach the database"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "could not reach the database")
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.Render(rr, "pages/missing.html", TemplateData{})
	assert.Error(t, err)
	assert.Empty(t, rr.Body.String())
}

func TestNilEngine(t *testing.T) {
	var engine *Engine
	assert.Error(t, engine.Render(httptest.NewRecorder(), "pages/error.html", TemplateData{}))
}
