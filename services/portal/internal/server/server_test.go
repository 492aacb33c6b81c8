package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"campusportal/internal/ratelimit"
	"campusportal/pkg/domain"
	"campusportal/pkg/store"
	"campusportal/services/portal/internal/app"
)

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, *app.App) {
	t.Helper()
	a, err := app.New(app.Config{Store: store.NewMemoryStore(nil)})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	cfg.App = a
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, a
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp
}

func TestHealthAndRequestID(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	resp := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" || resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing middleware headers: %v", resp.Header)
	}
}

func TestApplicationFlow(t *testing.T) {
	ts, _ := newTestServer(t, Config{})

	var client, student domain.User
	if resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/signup", app.SignUpInput{Name: "Jane", Email: "client@test.com", Password: "password", Role: domain.RoleClient}, &client); resp.StatusCode != http.StatusCreated {
		t.Fatalf("client signup: %d", resp.StatusCode)
	}
	doJSON(t, http.MethodPost, ts.URL+"/api/auth/signup", app.SignUpInput{Name: "Alex", Email: "alex@test.com", Password: "password", Role: domain.RoleStudent}, &student)

	var errBody errorResponse
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/signup", app.SignUpInput{Name: "Alex", Email: "ALEX@test.com", Password: "password", Role: domain.RoleStudent}, &errBody)
	if resp.StatusCode != http.StatusConflict || errBody.Error != "User already exists" || errBody.Code != "AUTH_EMAIL_EXISTS" {
		t.Fatalf("duplicate signup: %d %+v", resp.StatusCode, errBody)
	}
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", loginRequest{Email: "alex@test.com", Password: "password", Role: domain.RoleClient}, &errBody)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong role login: %d", resp.StatusCode)
	}

	var post domain.Post
	seats := 2
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/clients/"+client.ID+"/posts", app.PostInput{Title: "Dev", NumberOfSeats: &seats}, &post)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create post: %d", resp.StatusCode)
	}

	var application domain.Application
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/posts/"+post.ID+"/applications", applyRequest{StudentID: student.ID}, &application)
	if resp.StatusCode != http.StatusCreated || application.Status != domain.StatusPending {
		t.Fatalf("apply: %d %+v", resp.StatusCode, application)
	}
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/posts/"+post.ID+"/applications", applyRequest{StudentID: student.ID}, &errBody)
	if resp.StatusCode != http.StatusConflict || errBody.Code != "APPLICATION_DUPLICATE" {
		t.Fatalf("duplicate apply: %d %+v", resp.StatusCode, errBody)
	}

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/applications/"+application.ID+"/status", statusRequest{Status: "Hired"}, &errBody)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown status should be rejected, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/applications/"+application.ID+"/status", statusRequest{Status: "accepted"}, &application)
	if resp.StatusCode != http.StatusOK || application.Status != domain.StatusAccepted {
		t.Fatalf("accept: %d %+v", resp.StatusCode, application)
	}

	var opportunities struct {
		Items []app.Opportunity `json:"items"`
	}
	doJSON(t, http.MethodGet, ts.URL+"/api/students/"+student.ID+"/opportunities", nil, &opportunities)
	if len(opportunities.Items) != 1 || *opportunities.Items[0].SeatsLeft != 1 || !opportunities.Items[0].Applied {
		t.Fatalf("unexpected opportunities: %+v", opportunities.Items)
	}

	var inbox struct {
		Items []domain.Notification `json:"items"`
		Count int                   `json:"count"`
	}
	doJSON(t, http.MethodGet, ts.URL+"/api/students/"+student.ID+"/notifications", nil, &inbox)
	if inbox.Count != 1 || inbox.Items[0].Type != domain.NotificationSuccess {
		t.Fatalf("unexpected inbox: %+v", inbox)
	}
	var marked map[string]int
	doJSON(t, http.MethodPost, ts.URL+"/api/students/"+student.ID+"/notifications/read", nil, &marked)
	if marked["updated"] != 1 {
		t.Fatalf("expected one marked, got %v", marked)
	}
}

func TestAssessmentEndpoints(t *testing.T) {
	ts, a := newTestServer(t, Config{})
	if _, err := a.SeedDemo(t.Context()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	alex, err := a.Login(t.Context(), "student@test.com", "password", domain.RoleStudent)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	apps, err := a.ListApplicationsForStudent(t.Context(), alex.ID)
	if err != nil || len(apps) != 1 {
		t.Fatalf("seeded applications: %v %v", apps, err)
	}
	applicationID := apps[0].ID

	var attempt domain.TestAttempt
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/applications/"+applicationID+"/test", nil, &attempt)
	if resp.StatusCode != http.StatusCreated || attempt.Status != domain.AttemptAssigned {
		t.Fatalf("assign: %d %+v", resp.StatusCode, attempt)
	}
	var test domain.AptitudeTest
	doJSON(t, http.MethodGet, ts.URL+"/api/posts/"+apps[0].PostID+"/test", nil, &test)
	answers := map[string]int{}
	for _, q := range test.Questions {
		answers[q.ID] = q.CorrectAnswerIndex
	}
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/attempts/"+attempt.ID+"/submit", submitRequest{Answers: answers}, &attempt)
	if resp.StatusCode != http.StatusOK || attempt.Score != 100 {
		t.Fatalf("submit: %d %+v", resp.StatusCode, attempt)
	}
	var errBody errorResponse
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/attempts/"+attempt.ID+"/submit", submitRequest{Answers: map[string]int{}}, &errBody)
	if resp.StatusCode != http.StatusConflict || errBody.Code != "TEST_ALREADY_SUBMITTED" {
		t.Fatalf("resubmit: %d %+v", resp.StatusCode, errBody)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/applications/missing/meetings", scheduleRequest{Title: "Interview"}, &errBody)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing time should be rejected, got %d", resp.StatusCode)
	}
}

func TestUnknownResourcesReturn404(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	var errBody errorResponse
	resp := doJSON(t, http.MethodPatch, ts.URL+"/api/applications/missing/status", statusRequest{Status: "Accepted"}, &errBody)
	if resp.StatusCode != http.StatusNotFound || errBody.Error != "application not found" || errBody.RequestID == "" {
		t.Fatalf("unexpected response: %d %+v", resp.StatusCode, errBody)
	}
	var body any
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/posts/missing/applicants", nil, &body)
	if resp.StatusCode != http.StatusOK || body != nil {
		t.Fatalf("applicants for unknown post should be null, got %d %v", resp.StatusCode, body)
	}
}

func TestUploadAssetWithoutStorage(t *testing.T) {
	ts, a := newTestServer(t, Config{})
	u, err := a.SignUp(t.Context(), app.SignUpInput{Name: "Alex", Email: "alex@test.com", Password: "password", Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "cv.pdf")
	_, _ = fw.Write([]byte("%PDF-1.4"))
	_ = mw.Close()

	resp, err := http.Post(ts.URL+"/api/students/"+u.ID+"/assets/resume", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without object storage, got %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/api/students/"+u.ID+"/assets/video", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown asset kind expected 404, got %d", resp.StatusCode)
	}
}

func TestAuthRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := ratelimit.NewRedisClient(mr.Addr(), "")
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	ts, _ := newTestServer(t, Config{Redis: client, AuthRateLimitPerMinute: 1})

	body := recoverRequest{Email: "nobody@test.com"}
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/recover", body, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("first request expected 404, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/recover", body, nil)
	if resp.StatusCode != http.StatusTooManyRequests || resp.Header.Get("Retry-After") == "" {
		t.Fatalf("second request expected 429 with Retry-After, got %d", resp.StatusCode)
	}

	mr.Close()
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", loginRequest{}, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("limiter outage should fail closed, got %d", resp.StatusCode)
	}
}
