package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mediview/mediview/internal/upstream/patients"
)

func newTestServer(svc *Service) *echo.Echo {
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func startSession(t *testing.T, e *echo.Echo) *View {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/api/v1/sessions", map[string]string{"patient_id": "42"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body.String())
	}
	var view View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	return &view
}

func TestStartEndpoint(t *testing.T) {
	e := newTestServer(newTestService(&mockDirectory{}, &mockExtraction{record: notApprovedRecord()}))

	view := startSession(t, e)
	if !view.Reviewing {
		t.Error("expected reviewing session")
	}
	if view.ReviewStep == nil || view.ReviewStep.Label != "Active Problem List" {
		t.Errorf("review step = %+v, want Active Problem List", view.ReviewStep)
	}
}

func TestStartRequiresPatientID(t *testing.T) {
	e := newTestServer(newTestService(&mockDirectory{}, &mockExtraction{}))

	rec := doJSON(t, e, http.MethodPost, "/api/v1/sessions", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStartLookupFailureIs502WithNotice(t *testing.T) {
	e := newTestServer(newTestService(&mockDirectory{getErr: errors.New("down")}, &mockExtraction{}))

	rec := doJSON(t, e, http.MethodPost, "/api/v1/sessions", map[string]string{"patient_id": "42"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), MsgPatientLookupFailed) {
		t.Errorf("body = %s, want lookup notice", rec.Body.String())
	}
}

func TestGetUnknownSession(t *testing.T) {
	e := newTestServer(newTestService(&mockDirectory{}, &mockExtraction{}))

	rec := doJSON(t, e, http.MethodGet, "/api/v1/sessions/7e9bd3f0-9a3e-4a6f-b8a7-111111111111", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestInvalidSessionID(t *testing.T) {
	e := newTestServer(newTestService(&mockDirectory{}, &mockExtraction{}))

	rec := doJSON(t, e, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAddItemEndpoint(t *testing.T) {
	e := newTestServer(newTestService(&mockDirectory{}, &mockExtraction{record: notApprovedRecord()}))
	view := startSession(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/sessions/"+view.ID.String()+"/items/problems",
		map[string]string{"problem_name": "Asthma"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got View
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Review.Pending.Problems) != 2 {
		t.Errorf("problems = %d, want 2", len(got.Review.Pending.Problems))
	}
}

func TestAddItemUnknownCategory(t *testing.T) {
	e := newTestServer(newTestService(&mockDirectory{}, &mockExtraction{record: notApprovedRecord()}))
	view := startSession(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/sessions/"+view.ID.String()+"/items/allergies", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestApproveEndpointAdvances(t *testing.T) {
	e := newTestServer(newTestService(&mockDirectory{}, &mockExtraction{record: notApprovedRecord()}))
	view := startSession(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/sessions/"+view.ID.String()+"/review/approve", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got View
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.StepCurrent != 2 {
		t.Errorf("step = %d, want 2", got.StepCurrent)
	}
}

func TestUploadEndpointMetadataMismatch(t *testing.T) {
	e := newTestServer(newTestService(&mockDirectory{}, &mockExtraction{record: notApprovedRecord()}))
	view := startSession(t, e)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("files_data", `[{"report_type":"lab"},{"report_type":"imaging"}]`); err != nil {
		t.Fatal(err)
	}
	part, err := w.CreateFormFile("files", "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("pdf-bytes")); err != nil {
		t.Fatal(err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+view.ID.String()+"/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for 2 metadata entries and 1 file", rec.Code)
	}
}

func TestUploadEndpoint(t *testing.T) {
	ext := &mockExtraction{record: notApprovedRecord()}
	e := newTestServer(newTestService(&mockDirectory{}, ext))
	view := startSession(t, e)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("files_data", `[{"report_type":"lab","tag_document":"labs"}]`); err != nil {
		t.Fatal(err)
	}
	part, err := w.CreateFormFile("files", "cbc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("pdf-bytes")); err != nil {
		t.Fatal(err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+view.ID.String()+"/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(ext.uploaded) != 1 {
		t.Fatalf("upload calls = %d, want 1", len(ext.uploaded))
	}
	f := ext.uploaded[0][0]
	if f.FileName != "cbc.pdf" || f.ReportType != "lab" || f.Tag != "labs" {
		t.Errorf("forwarded file = %+v", f)
	}
	if string(f.Content) != "pdf-bytes" {
		t.Errorf("content = %q", f.Content)
	}
}

func TestListPatientsEndpointPaginates(t *testing.T) {
	dir := &mockDirectory{}
	for i := 0; i < 25; i++ {
		dir.patients = append(dir.patients, patients.Patient{ID: strconv.Itoa(i)})
	}
	e := newTestServer(newTestService(dir, &mockExtraction{}))

	rec := doJSON(t, e, http.MethodGet, "/api/v1/patients?limit=10&offset=20", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var page struct {
		Data    []patients.Patient `json:"data"`
		Total   int                `json:"total"`
		HasMore bool               `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 25 || len(page.Data) != 5 {
		t.Errorf("total = %d, page size = %d, want 25/5", page.Total, len(page.Data))
	}
	if page.HasMore {
		t.Error("expected final page")
	}
}

func TestDeleteEndpoint(t *testing.T) {
	svc := newTestService(&mockDirectory{}, &mockExtraction{record: notApprovedRecord()})
	e := newTestServer(svc)
	view := startSession(t, e)

	rec := doJSON(t, e, http.MethodDelete, "/api/v1/sessions/"+view.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if _, err := svc.Get(context.Background(), view.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected session gone, got %v", err)
	}
}
