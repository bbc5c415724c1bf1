package algorithm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medcalc/medcalc/internal/platform/validation"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(newTestService())
	h.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	e := echo.New()
	e.Validator = validation.New()
	return h, e
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func expectStatus(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
	return he
}

const stressTestSteps = `{"steps":[
	{"st_elevation":false},
	{"systolic_bp":130,"heart_rate":88},
	{"troponin_elevated":false},
	{"heart_score":5},
	{"repeat_troponin_elevated":false}
]}`

func TestHandler_ListAlgorithms(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?category=neurology", nil), rec)
	if err := h.ListAlgorithms(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []map[string]interface{} `json:"data"`
		Total int                      `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || body.Data[0]["id"] != "stroke-workup" {
		t.Errorf("expected only stroke-workup, got %+v", body)
	}
}

func TestHandler_GetAlgorithm(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := withID(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), "af-anticoagulation")
	if err := h.GetAlgorithm(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"when":"valvular_af eq true"`) {
		t.Errorf("expected conditions in text form, got %s", rec.Body.String())
	}

	c = withID(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()), "nope")
	expectStatus(t, h.GetAlgorithm(c), http.StatusNotFound)
}

func TestHandler_Start(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := withID(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), "stroke-workup")
	if err := h.Start(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v StepView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Node.ID != "onset" || v.Complete {
		t.Errorf("unexpected start view: %+v", v)
	}
}

func TestHandler_Next(t *testing.T) {
	h, e := newTestHandler()
	c, rec := newJSONContext(e, http.MethodPost, "/", `{"node_id":"ecg","inputs":{"st_elevation":false}}`)
	if err := h.Next(withID(c, "chest-pain-triage")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v StepView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Node.ID != "haemodynamics" {
		t.Errorf("expected haemodynamics, got %s", v.Node.ID)
	}
}

func TestHandler_Next_Missing(t *testing.T) {
	h, e := newTestHandler()
	c, _ := newJSONContext(e, http.MethodPost, "/", `{"node_id":"haemodynamics","inputs":{"systolic_bp":120}}`)
	he := expectStatus(t, h.Next(withID(c, "chest-pain-triage")), http.StatusUnprocessableEntity)
	body, ok := he.Message.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map message, got %T", he.Message)
	}
	missing, _ := body["missing"].([]string)
	if len(missing) != 1 || missing[0] != "heart_rate" {
		t.Errorf("expected heart_rate missing, got %v", body["missing"])
	}
}

func TestHandler_Next_RequiresNode(t *testing.T) {
	h, e := newTestHandler()
	c, _ := newJSONContext(e, http.MethodPost, "/", `{"inputs":{}}`)
	expectStatus(t, h.Next(withID(c, "chest-pain-triage")), http.StatusBadRequest)
}

func TestHandler_Walk(t *testing.T) {
	h, e := newTestHandler()
	c, rec := newJSONContext(e, http.MethodPost, "/", stressTestSteps)
	if err := h.Walk(withID(c, "chest-pain-triage")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v StepView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !v.Complete || v.Record == nil || v.Record.Terminal != "stress_test" {
		t.Errorf("expected completion at stress_test, got %+v", v)
	}
	if len(v.Path) != 6 {
		t.Errorf("expected 6 visited nodes, got %v", v.Path)
	}
}

func TestHandler_Walk_NoMatch(t *testing.T) {
	h, e := newTestHandler()
	c, _ := newJSONContext(e, http.MethodPost, "/", `{"steps":[{"hours_since_lkw":2},{"ct_finding":"unclear"}]}`)
	he := expectStatus(t, h.Walk(withID(c, "stroke-workup")), http.StatusUnprocessableEntity)
	body := he.Message.(map[string]interface{})
	if body["node_id"] != "imaging" {
		t.Errorf("expected stop at imaging, got %v", body["node_id"])
	}
}

func TestHandler_Report(t *testing.T) {
	h, e := newTestHandler()
	c, rec := newJSONContext(e, http.MethodPost, "/?format=print", stressTestSteps)
	if err := h.Report(withID(c, "chest-pain-triage")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := rec.Body.String()
	for _, want := range []string{"Chest Pain Triage\n=================", "Arrange non-invasive testing", "Generated: Fri, 01 Mar 2024 12:00:00 UTC"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestHandler_Layout(t *testing.T) {
	h, e := newTestHandler()
	c, rec := newJSONContext(e, http.MethodPost, "/", `{"steps":[{"valvular_af":false},{"sex":"male"}],"width":1000}`)
	if err := h.Layout(withID(c, "af-anticoagulation")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp LayoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Diagram.Width != 1000 {
		t.Errorf("expected width 1000, got %v", resp.Diagram.Width)
	}
	if len(resp.Path) != 2 || resp.Error == "" {
		t.Errorf("expected partial path with error, got %+v", resp)
	}
	for _, n := range resp.Diagram.Nodes {
		if n.ID == "stroke_risk" && !n.Current {
			t.Errorf("stroke_risk should be current")
		}
	}
}

func TestHandler_Export(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := withID(e.NewContext(httptest.NewRequest(http.MethodGet, "/?format=yaml", nil), rec), "stroke-workup")
	if err := h.Export(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/yaml" {
		t.Errorf("expected yaml content type, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "start_node_id: onset") {
		t.Errorf("unexpected export:\n%s", rec.Body.String())
	}

	c = withID(e.NewContext(httptest.NewRequest(http.MethodGet, "/?format=xml", nil), httptest.NewRecorder()), "stroke-workup")
	expectStatus(t, h.Export(c), http.StatusBadRequest)
}

func TestHandler_ValidateDefinition(t *testing.T) {
	h, e := newTestHandler()

	valid := `id: tiny
start_node_id: a
nodes:
  a: {type: question, inputs: [{id: x, name: X, type: number}], branches: [{when: x gt 1, target: b}, {target: c}]}
  b: {type: result}
  c: {type: result}
`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(valid))
	req.Header.Set(echo.HeaderContentType, "application/yaml")
	rec := httptest.NewRecorder()
	if err := h.ValidateDefinition(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"valid":true`) {
		t.Errorf("expected valid, got %d %s", rec.Code, rec.Body.String())
	}

	invalid := `{"id":"tiny","start_node_id":"a","nodes":{"a":{"type":"question","branches":[{"target":"gone"}]}}}`
	c, rec := newJSONContext(e, http.MethodPost, "/", invalid)
	if err := h.ValidateDefinition(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "gone") {
		t.Errorf("expected problems, got %d %s", rec.Code, rec.Body.String())
	}

	c, _ = newJSONContext(e, http.MethodPost, "/", `{"nodes":{"a":{"branches":[{"when":"x gt"}]}}}`)
	expectStatus(t, h.ValidateDefinition(c), http.StatusBadRequest)
}
