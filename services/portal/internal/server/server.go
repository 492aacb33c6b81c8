package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"campusportal/internal/ratelimit"
	"campusportal/internal/util"
	"campusportal/pkg/domain"
	"campusportal/services/portal/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// Redis enables rate limiting on the auth and apply endpoints when set.
	Redis                   *redis.Client
	AuthRateLimitPerMinute  int
	ApplyRateLimitPerMinute int
	TrustedProxies          *util.TrustedProxies
	MaxUploadBytes          int64
}

// Server exposes the portal operations as JSON over HTTP.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	trusted        *util.TrustedProxies
	maxUploadBytes int64
	authLimiter    *ratelimit.FixedWindowLimiter
	applyLimiter   *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		trusted:        cfg.TrustedProxies,
		maxUploadBytes: maxUploadBytes,
	}
	if cfg.Redis != nil {
		authLimit := cfg.AuthRateLimitPerMinute
		if authLimit <= 0 {
			authLimit = 10
		}
		applyLimit := cfg.ApplyRateLimitPerMinute
		if applyLimit <= 0 {
			applyLimit = 30
		}
		var err error
		s.authLimiter, err = ratelimit.NewFixedWindowLimiter(cfg.Redis, "", "auth", authLimit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init auth limiter: %w", err)
		}
		s.applyLimiter, err = ratelimit.NewFixedWindowLimiter(cfg.Redis, "", "apply", applyLimit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init apply limiter: %w", err)
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("portal", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// accounts
	s.mux.HandleFunc("POST /api/auth/signup", s.limited(s.authLimiter, s.handleSignup))
	s.mux.HandleFunc("POST /api/auth/login", s.limited(s.authLimiter, s.handleLogin))
	s.mux.HandleFunc("POST /api/auth/recover", s.limited(s.authLimiter, s.handleRecover))
	s.mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	s.mux.HandleFunc("POST /api/users/{id}/notifications", s.handleNotify)

	// students
	s.mux.HandleFunc("GET /api/students/{id}/profile", s.handleGetStudentProfile)
	s.mux.HandleFunc("PUT /api/students/{id}/profile", s.handleUpdateStudentProfile)
	s.mux.HandleFunc("POST /api/students/{id}/assets/{kind}", s.handleUploadAsset)
	s.mux.HandleFunc("GET /api/students/{id}/assets/{kind}", s.handleAssetURL)
	s.mux.HandleFunc("GET /api/students/{id}/opportunities", s.handleOpportunities)
	s.mux.HandleFunc("GET /api/students/{id}/applications", s.handleStudentApplications)
	s.mux.HandleFunc("GET /api/students/{id}/notifications", s.handleNotifications)
	s.mux.HandleFunc("POST /api/students/{id}/notifications/read", s.handleMarkAllRead)
	s.mux.HandleFunc("POST /api/students/{id}/notifications/{nid}/read", s.handleMarkRead)

	// clients
	s.mux.HandleFunc("GET /api/clients/{id}/profile", s.handleGetClientProfile)
	s.mux.HandleFunc("PUT /api/clients/{id}/profile", s.handleUpdateClientProfile)
	s.mux.HandleFunc("GET /api/clients/{id}/posts", s.handleClientPosts)
	s.mux.HandleFunc("POST /api/clients/{id}/posts", s.handleCreatePost)

	// posts
	s.mux.HandleFunc("GET /api/posts/{id}", s.handleGetPost)
	s.mux.HandleFunc("GET /api/posts/{id}/eligibility", s.handleEligibility)
	s.mux.HandleFunc("POST /api/posts/{id}/applications", s.limited(s.applyLimiter, s.handleApply))
	s.mux.HandleFunc("GET /api/posts/{id}/applicants", s.handleApplicants)
	s.mux.HandleFunc("GET /api/posts/{id}/test", s.handleGetTest)
	s.mux.HandleFunc("POST /api/posts/{id}/test", s.handleCreateTest)
	s.mux.HandleFunc("POST /api/posts/{id}/test/default", s.handleEnsureTest)
	s.mux.HandleFunc("POST /api/posts/{id}/test/bulk-assign", s.handleBulkAssign)

	// applications, attempts, meetings
	s.mux.HandleFunc("PATCH /api/applications/{id}/status", s.handleApplicationStatus)
	s.mux.HandleFunc("POST /api/applications/{id}/test", s.handleAssignTest)
	s.mux.HandleFunc("POST /api/applications/{id}/meetings", s.handleScheduleMeeting)
	s.mux.HandleFunc("POST /api/attempts/{id}/start", s.handleStartTest)
	s.mux.HandleFunc("POST /api/attempts/{id}/submit", s.handleSubmitTest)
	s.mux.HandleFunc("PATCH /api/meetings/{id}/status", s.handleMeetingStatus)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// limited applies a per-client fixed window. A nil limiter disables it.
func (s *Server) limited(limiter *ratelimit.FixedWindowLimiter, next http.HandlerFunc) http.HandlerFunc {
	if limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ip := util.ClientIP(r, s.trusted)
		decision, err := limiter.Allow(r.Context(), r.URL.Path+"|"+ip)
		if err != nil {
			util.LoggerFromContext(r.Context()).Warn("rate limiter unavailable", "path", r.URL.Path, "ip", ip, "err", err)
			writeError(w, http.StatusServiceUnavailable, "rate limiter unavailable")
			return
		}
		if !decision.Allowed {
			secs := int(decision.RetryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// accounts

type loginRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
}

type recoverRequest struct {
	Email string `json:"email"`
}

type notifyRequest struct {
	Message string                  `json:"message"`
	Type    domain.NotificationType `json:"type"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req app.SignUpInput
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.app.SignUp(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.app.Login(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.RecoverPassword(r.Context(), req.Email); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok, err := s.app.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if !ok {
		notFound(w, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := s.app.Notify(r.Context(), r.PathValue("id"), req.Message, req.Type)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// students

func (s *Server) handleGetStudentProfile(w http.ResponseWriter, r *http.Request) {
	p, ok, err := s.app.GetStudentProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if !ok {
		notFound(w, "student not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateStudentProfile(w http.ResponseWriter, r *http.Request) {
	var req app.StudentProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.app.UpdateStudentProfile(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	kind, ok := app.ParseAssetKind(r.PathValue("kind"))
	if !ok {
		notFound(w, "not found")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	p, err := s.app.UploadProfileAsset(r.Context(), r.PathValue("id"), kind, header.Filename, file, header.Size)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleAssetURL(w http.ResponseWriter, r *http.Request) {
	kind, ok := app.ParseAssetKind(r.PathValue("kind"))
	if !ok {
		notFound(w, "not found")
		return
	}
	url, err := s.app.ProfileAssetURL(r.Context(), r.PathValue("id"), kind)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.ListOpportunities(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleStudentApplications(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.ListApplicationsForStudent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.ListNotifications(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.app.MarkAllNotificationsRead(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.app.MarkNotificationRead(r.Context(), r.PathValue("id"), r.PathValue("nid"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// clients

type clientProfileRequest struct {
	Company string `json:"company"`
}

func (s *Server) handleGetClientProfile(w http.ResponseWriter, r *http.Request) {
	p, ok, err := s.app.GetClientProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if !ok {
		notFound(w, "client profile not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateClientProfile(w http.ResponseWriter, r *http.Request) {
	var req clientProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.app.UpdateClientProfile(r.Context(), r.PathValue("id"), req.Company)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleClientPosts(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.ListClientPosts(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req app.PostInput
	if !decodeJSON(w, r, &req) {
		return
	}
	post, err := s.app.CreatePost(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// posts

type applyRequest struct {
	StudentID string `json:"studentId"`
}

type createTestRequest struct {
	ClientID string `json:"clientId"`
	app.TestInput
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, ok, err := s.app.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if !ok {
		notFound(w, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	studentID := strings.TrimSpace(r.URL.Query().Get("studentId"))
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "studentId is required")
		return
	}
	verdict, err := s.app.CheckEligibility(r.Context(), studentID, r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.StudentID) == "" {
		writeError(w, http.StatusBadRequest, "studentId is required")
		return
	}
	application, err := s.app.Apply(r.Context(), req.StudentID, r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, application)
}

// handleApplicants answers null for an unknown post; the dashboard renders
// that as an empty list.
func (s *Server) handleApplicants(w http.ResponseWriter, r *http.Request) {
	res, ok, err := s.app.ListApplicantsForPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetTest(w http.ResponseWriter, r *http.Request) {
	test, ok, err := s.app.GetTestForPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if !ok {
		notFound(w, "aptitude test not found")
		return
	}
	writeJSON(w, http.StatusOK, test)
}

func (s *Server) handleCreateTest(w http.ResponseWriter, r *http.Request) {
	var req createTestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	test, err := s.app.CreateTest(r.Context(), r.PathValue("id"), req.ClientID, req.TestInput)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, test)
}

func (s *Server) handleEnsureTest(w http.ResponseWriter, r *http.Request) {
	test, created, err := s.app.EnsureTestForPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, test)
}

func (s *Server) handleBulkAssign(w http.ResponseWriter, r *http.Request) {
	n, err := s.app.BulkAssignTest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"assigned": n})
}

// applications, attempts, meetings

type statusRequest struct {
	Status string `json:"status"`
}

type assignTestRequest struct {
	TestID string `json:"testId"`
}

type scheduleRequest struct {
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

type submitRequest struct {
	Answers map[string]int `json:"answers"`
}

func (s *Server) handleApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, ok := parseApplicationStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	application, err := s.app.UpdateApplicationStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

// handleAssignTest assigns the given test, or the post's test (created on
// demand) when testId is omitted.
func (s *Server) handleAssignTest(w http.ResponseWriter, r *http.Request) {
	var req assignTestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var (
		attempt domain.TestAttempt
		err     error
	)
	if testID := strings.TrimSpace(req.TestID); testID != "" {
		attempt, err = s.app.AssignTest(r.Context(), r.PathValue("id"), testID)
	} else {
		attempt, err = s.app.AssignDefaultTest(r.Context(), r.PathValue("id"))
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}

func (s *Server) handleScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := s.app.ScheduleMeeting(r.Context(), r.PathValue("id"), req.Title, req.ScheduledAt)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleStartTest(w http.ResponseWriter, r *http.Request) {
	attempt, err := s.app.StartTest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (s *Server) handleSubmitTest(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	attempt, err := s.app.SubmitTest(r.Context(), r.PathValue("id"), req.Answers)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (s *Server) handleMeetingStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := s.app.UpdateMeetingStatus(r.Context(), r.PathValue("id"), domain.MeetingStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func parseApplicationStatus(status string) (domain.ApplicationStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending":
		return domain.StatusPending, true
	case "shortlisted":
		return domain.StatusShortlisted, true
	case "accepted":
		return domain.StatusAccepted, true
	case "rejected":
		return domain.StatusRejected, true
	default:
		return "", false
	}
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

// statusForError maps application errors onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, app.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrAssetStorageDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeFor(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeFor(status int, msg string) string {
	switch msg {
	case app.ErrDuplicateApplication.Error():
		return "APPLICATION_DUPLICATE"
	case app.ErrEmailExists.Error():
		return "AUTH_EMAIL_EXISTS"
	case app.ErrInvalidCredentials.Error():
		return "AUTH_INVALID_CREDENTIALS"
	case app.ErrAttemptCompleted.Error():
		return "TEST_ALREADY_SUBMITTED"
	case app.ErrTestAlreadyAssigned.Error():
		return "TEST_ALREADY_ASSIGNED"
	case app.ErrEmptyTest.Error():
		return "TEST_EMPTY"
	case "invalid JSON body", "invalid status", "invalid form data":
		return "PORTAL_INVALID_REQUEST"
	case "file too large":
		return "ASSET_FILE_TOO_LARGE"
	case "too many requests":
		return "RATE_LIMITED"
	}

	switch status {
	case http.StatusBadRequest:
		return "PORTAL_INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_CREDENTIALS"
	case http.StatusNotFound:
		return "PORTAL_NOT_FOUND"
	case http.StatusConflict:
		return "PORTAL_CONFLICT"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return "SYSTEM_UNAVAILABLE"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
