package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRequestTimeout_CompletesWithinDeadline(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/calculators", nil), rec)

	called := false
	handler := func(c echo.Context) error {
		called = true
		if _, ok := c.Request().Context().Deadline(); !ok {
			t.Error("expected request context to carry a deadline")
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := RequestTimeout(5 * time.Second)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

func TestRequestTimeout_ReturnsTimeoutOnExpiry(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/algorithms/stroke-workup/walk", nil), rec)

	handler := func(c echo.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return c.String(http.StatusOK, "ok")
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	}

	if err := RequestTimeout(50 * time.Millisecond)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected status 504, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["message"] == "" {
		t.Error("expected a message in the timeout body")
	}
}

func TestRequestTimeout_PropagatesHandlerError(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	want := echo.NewHTTPError(http.StatusNotFound, "calculator not found")
	err := RequestTimeout(time.Second)(func(echo.Context) error { return want })(c)
	if err != want {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestRequestTimeout_Disabled(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	handler := func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("expected no deadline when the timeout is disabled")
		}
		return nil
	}
	if err := RequestTimeout(0)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
