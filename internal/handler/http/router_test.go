package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	attendancesvc "github.com/cmlabs-hris/attendance-backend-go/internal/service/attendance"
	historysvc "github.com/cmlabs-hris/attendance-backend-go/internal/service/breakhistory"
	breaksvc "github.com/cmlabs-hris/attendance-backend-go/internal/service/breaks"
	dashboardsvc "github.com/cmlabs-hris/attendance-backend-go/internal/service/employee_dashboard"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
	leavesvc "github.com/cmlabs-hris/attendance-backend-go/internal/service/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifications struct {
	mu     sync.Mutex
	read   []string
	events chan notification.SSEEvent
}

func (s *stubNotifications) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	return nil
}

func (s *stubNotifications) QueueBulkNotification(ctx context.Context, reqs []notification.CreateNotificationRequest) error {
	return nil
}

func (s *stubNotifications) List(ctx context.Context, req notification.ListNotificationsRequest) (notification.NotificationListResponse, error) {
	return notification.NotificationListResponse{
		Notifications: []notification.NotificationResponse{{ID: "n-1", Type: notification.TypeLeaveRequest, Title: "Leave request"}},
		Total:         41,
		UnreadCount:   1,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}, nil
}

func (s *stubNotifications) UnreadCount(ctx context.Context, employeeID string) (int, error) {
	return 3, nil
}

func (s *stubNotifications) MarkAsRead(ctx context.Context, employeeID, notificationID string) error {
	if notificationID != "n-1" {
		return notification.ErrNotificationNotFound
	}
	s.mu.Lock()
	s.read = append(s.read, employeeID+":"+notificationID)
	s.mu.Unlock()
	return nil
}

func (s *stubNotifications) MarkAllAsRead(ctx context.Context, employeeID string) error {
	return nil
}

func (s *stubNotifications) Subscribe(ctx context.Context, employeeID string) (<-chan notification.SSEEvent, func()) {
	return s.events, func() {}
}

func (s *stubNotifications) Stop() {}

type testServer struct {
	t      *testing.T
	router http.Handler
	jwt    *jwt.JWTService
	notifs *stubNotifications
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithBodyLimit(t, 10<<20)
}

func newTestServerWithBodyLimit(t *testing.T, maxBodyBytes int64) *testServer {
	t.Helper()

	employees := servicetest.NewEmployees(
		employee.Employee{ID: "emp-1", EmployeeCode: "E001", Name: "Dana", Role: employee.RoleEmployee, IsActive: true},
		employee.Employee{ID: "adm-1", EmployeeCode: "A001", Name: "Ari", Role: employee.RoleAdmin, IsActive: true},
	)
	tx := &servicetest.Tx{}
	clock := &servicetest.Clock{}
	brk := &servicetest.Breaks{}
	history := servicetest.NewHistory()
	leaves := &servicetest.Leaves{}
	notifier := &servicetest.Notifier{}

	store, err := storage.NewLocalStorage(t.TempDir(), "http://files.test/uploads")
	require.NoError(t, err)

	jwtService := jwt.NewJWTService("handler-test-secret", time.Hour)
	aggregator := historysvc.NewAggregator(history, breakhistory.NewPolicy([]string{"lunch"}))
	notifs := &stubNotifications{events: make(chan notification.SSEEvent, 1)}

	handlers := Handlers{
		Attendance: NewAttendanceHandler(
			attendancesvc.NewAttendanceService(tx, clock, brk, employees),
			dashboardsvc.NewEmployeeDashboardService(clock, brk, history),
		),
		Break: NewBreakHandler(
			breaksvc.NewBreakService(tx, brk, clock, employees, history, aggregator, notifier, breaksvc.Config{}),
		),
		Leave: NewLeaveHandler(
			leavesvc.NewLeaveService(tx, leaves, employees, file.NewFileService(store, 600), notifier, leavesvc.Config{
				AnnualAllowance:    30,
				AttachmentMaxBytes: 5 << 20,
				SignatureMaxBytes:  2 << 20,
			}),
		),
		Notification: NewNotificationHandler(notifs, jwtService),
	}

	router := NewRouter(jwtService, handlers, RouterOptions{
		Env:                "test",
		Version:            "test",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:       maxBodyBytes,
		UploadsDir:         store.BasePath(),
	})
	return &testServer{t: t, router: router, jwt: jwtService, notifs: notifs}
}

func (s *testServer) token(employeeID string, role employee.Role) string {
	token, _, err := s.jwt.GenerateAccessToken(employeeID, role)
	require.NoError(s.t, err)
	return token
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func (s *testServer) do(method, path, token string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) postJSON(path, token string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(s.t, err)
	return s.do(http.MethodPost, path, token, bytes.NewReader(raw), "application/json")
}

func (s *testServer) errorCode(env envelope) string {
	s.t.Helper()
	require.NotNil(s.t, env.Error)
	return env.Error.Code
}

var (
	checkIn = map[string]interface{}{
		"location": "Office", "check_date": "2024-01-15", "check_time": "09:00", "time_zone": "UTC+04:00",
	}
	checkOut = map[string]interface{}{
		"location": "Office", "check_date": "2024-01-15", "check_time": "17:30", "time_zone": "UTC+04:00",
		"reason": "Done for the day",
	}
)

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.postJSON("/api/v1/checkin", "", checkIn)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", s.errorCode(env))

	rec, _ = s.do(http.MethodGet, "/api/v1/home", "not-a-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_BodyTooLarge(t *testing.T) {
	s := newTestServerWithBodyLimit(t, 64)
	token := s.token("emp-1", employee.RoleEmployee)

	padded := map[string]interface{}{}
	for k, v := range checkIn {
		padded[k] = v
	}
	padded["reason"] = strings.Repeat("x", 128)

	rec, env := s.postJSON("/api/v1/checkin", token, padded)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, env.Success)
}

func TestRouter_ClockDay(t *testing.T) {
	s := newTestServer(t)
	token := s.token("emp-1", employee.RoleEmployee)

	rec, env := s.postJSON("/api/v1/checkout", token, checkOut)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NOT_CHECKED_IN", s.errorCode(env))

	rec, env = s.postJSON("/api/v1/checkin", token, checkIn)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	rec, env = s.postJSON("/api/v1/checkin", token, checkIn)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_CHECKED_IN", s.errorCode(env))

	rec, env = s.postJSON("/api/v1/break/start", token, map[string]interface{}{
		"break_type": "lunch", "break_start_time": "12:00", "location": "Cafeteria", "date": "2024-01-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = s.postJSON("/api/v1/checkout", token, checkOut)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ACTIVE_BREAK_EXISTS", s.errorCode(env))

	rec, env = s.postJSON("/api/v1/break/end", token, map[string]interface{}{
		"break_end_time": "12:45", "location": "Cafeteria", "date": "2024-01-15",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var ended struct {
		Break struct {
			DurationSeconds int64 `json:"duration_seconds"`
		} `json:"break"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ended))
	assert.Equal(t, int64(2700), ended.Break.DurationSeconds)

	rec, env = s.postJSON("/api/v1/break/end", token, map[string]interface{}{
		"break_end_time": "13:00", "location": "Cafeteria", "date": "2024-01-15",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_ACTIVE_BREAK", s.errorCode(env))

	rec, _ = s.postJSON("/api/v1/checkout", token, checkOut)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/home?date=2024-01-15", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var home struct {
		Status string `json:"status_of_check"`
		Breaks []struct {
			BreakType string `json:"break_type"`
		} `json:"breaks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &home))
	assert.Equal(t, "checked_out", home.Status)
	assert.Len(t, home.Breaks, 1)
}

func TestRouter_ValidationEnvelope(t *testing.T) {
	s := newTestServer(t)
	token := s.token("emp-1", employee.RoleEmployee)

	rec, env := s.postJSON("/api/v1/checkin", token, map[string]interface{}{
		"location": "   ", "check_date": "2024-01-15", "check_time": "09:00", "time_zone": "UTC",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", s.errorCode(env))
	assert.Contains(t, env.Error.Details, "location")

	rec, env = s.do(http.MethodPost, "/api/v1/checkin", token, strings.NewReader("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", s.errorCode(env))
}

func (s *testServer) applyJSON(token string) int64 {
	s.t.Helper()
	rec, env := s.postJSON("/api/v1/leave-apply", token, map[string]interface{}{
		"category": "annual", "start_date": "2030-03-18", "end_date": "2030-03-19", "total_days": 2, "reason": "Trip",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &created))
	require.Equal(s.t, "pending", created.Status)
	return created.ID
}

func TestRouter_LeaveLifecycle(t *testing.T) {
	s := newTestServer(t)
	worker := s.token("emp-1", employee.RoleEmployee)
	admin := s.token("adm-1", employee.RoleAdmin)

	id := s.applyJSON(worker)
	leavePath := "/api/v1/leaves/" + jsonNumber(id)

	rec, env := s.do(http.MethodPost, leavePath+"/approve", worker, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "PERMISSION_DENIED", s.errorCode(env))

	// A forged admin role claim still fails the directory check.
	forged := s.token("emp-1", employee.RoleAdmin)
	rec, env = s.do(http.MethodPost, leavePath+"/approve", forged, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPost, leavePath+"/approve", admin, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(http.MethodPost, leavePath+"/cancel", worker, nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", s.errorCode(env))

	rec, env = s.do(http.MethodGet, "/api/v1/leave-balance", worker, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var balance struct {
		Used      float64 `json:"used"`
		Remaining float64 `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &balance))
	assert.Equal(t, 2.0, balance.Used)
	assert.Equal(t, 28.0, balance.Remaining)

	rec, _ = s.do(http.MethodGet, leavePath, worker, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/leaves/999", worker, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", s.errorCode(env))

	rec, _ = s.do(http.MethodGet, "/api/v1/leaves/abc", worker, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LeaveRejectRequiresReason(t *testing.T) {
	s := newTestServer(t)
	worker := s.token("emp-1", employee.RoleEmployee)
	admin := s.token("adm-1", employee.RoleAdmin)

	id := s.applyJSON(worker)
	path := "/api/v1/leaves/" + jsonNumber(id) + "/reject"

	rec, env := s.postJSON(path, admin, map[string]string{"rejection_reason": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", s.errorCode(env))

	rec, _ = s.postJSON(path, admin, map[string]string{"rejection_reason": "Peak season"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_LeaveApplyMultipart(t *testing.T) {
	s := newTestServer(t)
	worker := s.token("emp-1", employee.RoleEmployee)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("data", `{"category":"sick","start_date":"2030-01-02","end_date":"2030-01-02","total_days":1,"reason":"Flu"}`))
	part, err := mw.CreateFormFile("attachment", "note.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 doctor's note"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec, env := s.do(http.MethodPost, "/api/v1/leave-apply", worker, &body, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		AttachmentURL *string `json:"attachment_url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotNil(t, created.AttachmentURL)
	assert.True(t, strings.HasPrefix(*created.AttachmentURL, "http://files.test/uploads/leave/emp-1/"))

	// The stored file is served back under /uploads.
	stored := strings.TrimPrefix(*created.AttachmentURL, "http://files.test")
	rec, _ = s.do(http.MethodGet, stored, "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "doctor's note")
}

func TestRouter_LeaveApplyRejectsBadAttachment(t *testing.T) {
	s := newTestServer(t)
	worker := s.token("emp-1", employee.RoleEmployee)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("data", `{"category":"sick","start_date":"2030-01-02","end_date":"2030-01-02","total_days":1}`))
	part, err := mw.CreateFormFile("attachment", "payload.exe")
	require.NoError(t, err)
	_, _ = part.Write([]byte("MZ"))
	require.NoError(t, mw.Close())

	rec, env := s.do(http.MethodPost, "/api/v1/leave-apply", worker, &body, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", s.errorCode(env))
	assert.Contains(t, env.Error.Details, "attachment")
}

func TestRouter_LeaveListScopes(t *testing.T) {
	s := newTestServer(t)
	worker := s.token("emp-1", employee.RoleEmployee)
	admin := s.token("adm-1", employee.RoleAdmin)
	s.applyJSON(worker)
	s.applyJSON(admin)

	list := func(token, query string) (bool, int) {
		rec, env := s.do(http.MethodGet, "/api/v1/leave-list"+query, token, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Leaves  []json.RawMessage `json:"leaves"`
			IsAdmin bool              `json:"is_admin"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		return resp.IsAdmin, len(resp.Leaves)
	}

	isAdmin, n := list(worker, "?employee=A001")
	assert.False(t, isAdmin)
	assert.Equal(t, 1, n)

	isAdmin, n = list(admin, "")
	assert.True(t, isAdmin)
	assert.Equal(t, 2, n)

	_, n = list(admin, "?employee=emp-1&status=pending")
	assert.Equal(t, 1, n)

	rec, env := s.do(http.MethodGet, "/api/v1/leave-list?status=archived", admin, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", s.errorCode(env))
}

func TestRouter_Notifications(t *testing.T) {
	s := newTestServer(t)
	token := s.token("emp-1", employee.RoleEmployee)

	rec, env := s.do(http.MethodGet, "/api/v1/notifications?page=2&page_size=20", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), env.Meta["total_pages"])

	rec, _ = s.do(http.MethodPost, "/api/v1/notifications/n-1/read", token, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"emp-1:n-1"}, s.notifs.read)

	rec, env = s.do(http.MethodPost, "/api/v1/notifications/missing/read", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/notifications/unread-count", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread_count":3}`, string(env.Data))
}

func TestRouter_NotificationStream(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodGet, "/api/v1/notifications/stream", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Access tokens are not accepted on the stream.
	rec, _ = s.do(http.MethodGet, "/api/v1/notifications/stream?token="+s.token("emp-1", employee.RoleEmployee), "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(http.MethodGet, "/api/v1/notifications/sse-token", s.token("emp-1", employee.RoleEmployee), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sseToken notification.SSETokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &sseToken))

	s.notifs.events <- notification.SSEEvent{
		Event: "notification",
		Data:  notification.NotificationResponse{ID: "n-9", Title: "Leave approved"},
	}
	close(s.notifs.events)

	rec, _ = s.do(http.MethodGet, "/api/v1/notifications/stream?token="+sseToken.Token, "", nil, "")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: notification")
	assert.Contains(t, body, `"id":"n-9"`)
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
