package parameter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medcalc/medcalc/internal/platform/auth"
	"github.com/medcalc/medcalc/internal/platform/validation"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(newTestService())
	e := echo.New()
	e.Validator = validation.New()
	return h, e
}

func newSessionContext(e *echo.Echo, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	req.Header.Set(SessionHeader, "session-1")
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_SetParameter(t *testing.T) {
	h, e := newTestHandler()
	c, rec := newSessionContext(e, http.MethodPut, `{"name":"Age","value":62,"unit":"years"}`)
	c.SetParamNames("id")
	c.SetParamValues("age")

	if err := h.SetParameter(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	p, err := h.svc.Get(context.Background(), "session-1", "age")
	if err != nil {
		t.Fatalf("expected stored parameter: %v", err)
	}
	if p.Value != 62.0 {
		t.Errorf("expected value 62, got %v", p.Value)
	}
}

func TestHandler_SetParameter_InvalidID(t *testing.T) {
	h, e := newTestHandler()
	c, _ := newSessionContext(e, http.MethodPut, `{"value":1}`)
	c.SetParamNames("id")
	c.SetParamValues("Not Valid")

	err := h.SetParameter(c)
	if err == nil {
		t.Fatal("expected error for invalid id")
	}
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_SetParameter_MissingValue(t *testing.T) {
	h, e := newTestHandler()
	c, _ := newSessionContext(e, http.MethodPut, `{"name":"Age"}`)
	c.SetParamNames("id")
	c.SetParamValues("age")

	err := h.SetParameter(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_GetParameter_NotFound(t *testing.T) {
	h, e := newTestHandler()
	c, _ := newSessionContext(e, http.MethodGet, "")
	c.SetParamNames("id")
	c.SetParamValues("age")

	err := h.GetParameter(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_ListRemoveClear(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	h.svc.Set(ctx, "session-1", StoredParameter{ID: "age", Value: 50.0})
	h.svc.Set(ctx, "session-1", StoredParameter{ID: "hdl", Value: 45.0})

	c, rec := newSessionContext(e, http.MethodDelete, "")
	c.SetParamNames("id")
	c.SetParamValues("age")
	if err := h.RemoveParameter(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	c, rec = newSessionContext(e, http.MethodGet, "")
	if err := h.ListParameters(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []StoredParameter `json:"data"`
		Total int               `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || body.Data[0].ID != "hdl" {
		t.Errorf("expected only hdl left, got %+v", body)
	}

	c, rec = newSessionContext(e, http.MethodDelete, "")
	if err := h.ClearParameters(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, _ := h.svc.List(ctx, "session-1")
	if len(list) != 0 {
		t.Errorf("expected empty list after clear, got %d", len(list))
	}
}

func TestOwnerFromContext(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "abc")
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, "user-1"))
	c := e.NewContext(req, httptest.NewRecorder())
	if got := OwnerFromContext(c); got != "user-1:abc" {
		t.Errorf("expected session scoped under the user, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "abc")
	c = e.NewContext(req, httptest.NewRecorder())
	if got := OwnerFromContext(c); got != "abc" {
		t.Errorf("expected anonymous session id, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, "user-1"))
	c = e.NewContext(req, httptest.NewRecorder())
	if got := OwnerFromContext(c); got != "user-1" {
		t.Errorf("expected user id, got %q", got)
	}

	rec := httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	first := OwnerFromContext(c)
	if first == "" {
		t.Fatal("expected an issued session id")
	}
	if rec.Header().Get(SessionHeader) != first {
		t.Errorf("expected issued session id in response header")
	}
	if again := OwnerFromContext(c); again != first {
		t.Errorf("expected stable session id within a request, got %q then %q", first, again)
	}
}

func TestHandler_SessionHeaderCannotReachAnotherUser(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	if _, err := h.svc.Set(ctx, "alice", StoredParameter{ID: "age", Value: 71.0}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, header := range []string{"alice", "shared"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionHeader, header)
		req = req.WithContext(auth.WithUser(req.Context(), "mallory", []string{"clinician"}))
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues("age")

		err := h.GetParameter(c)
		if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
			t.Errorf("header %q: expected 404, got %v", header, err)
		}
	}

	for _, user := range []string{"alice", "bob"} {
		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"value":1}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(SessionHeader, "shared")
		req = req.WithContext(auth.WithUser(req.Context(), user, []string{"clinician"}))
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues("weight")
		if err := h.SetParameter(c); err != nil {
			t.Fatalf("%s: unexpected error: %v", user, err)
		}
	}
	for _, owner := range []string{"alice:shared", "bob:shared"} {
		list, _ := h.svc.List(ctx, owner)
		if len(list) != 1 {
			t.Errorf("expected one parameter for %s, got %d", owner, len(list))
		}
	}
	if p, _ := h.svc.Get(ctx, "alice", "age"); p == nil || p.Value != 71.0 {
		t.Errorf("expected alice's own value untouched, got %+v", p)
	}
}
