package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondErrorStatusError(t *testing.T) {
	rr := httptest.NewRecorder()
	cause := errors.New("dial tcp: refused")
	RespondError(rr, fmt.Errorf("render: %w", Status(http.StatusServiceUnavailable, "Data Unavailable", "database unreachable", cause)))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, ProblemDetail{Type: "about:blank", Title: "Data Unavailable", Status: 503, Detail: "database unreachable"}, body)
}

func TestStatusOfFallbacks(t *testing.T) {
	status, title, detail := StatusOf(fmt.Errorf("category: %w", ErrValidation))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Validation Failed", title)
	require.Contains(t, detail, "category")

	status, title, detail = StatusOf(errors.New("secret internals"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "Internal Error", title)
	require.Empty(t, detail)

	status, title, _ = StatusOf(Status(http.StatusBadGateway, "", "", nil))
	require.Equal(t, http.StatusBadGateway, status)
	require.Equal(t, "Bad Gateway", title)
}

func TestJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, map[string]int{"total_products": 3})
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `{"total_products":3}`, rr.Body.String())
}

func TestJSONUnencodableBodyIsServerError(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, map[string]float64{"avg_price": math.Inf(1)})

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, http.StatusInternalServerError, body.Status)
}
