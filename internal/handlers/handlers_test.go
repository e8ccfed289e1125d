package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicharya/aicharya-backend/internal/domain"
	"github.com/aicharya/aicharya-backend/internal/handlers"
	"github.com/aicharya/aicharya-backend/internal/service"
	"github.com/aicharya/aicharya-backend/pkg/auth"
	"github.com/aicharya/aicharya-backend/pkg/config"
)

// ---------- Mocks ----------

type mockAuthService struct {
	registerFn func(req *domain.CreateUserRequest) (*domain.RegisterResponse, error)
	loginFn    func(req *domain.LoginRequest) (*domain.LoginResponse, error)
	profileFn  func(id int64) (*domain.User, error)
	confirmFn  func(token string) (*domain.User, error)
}

func (m *mockAuthService) Register(_ context.Context, req *domain.CreateUserRequest) (*domain.RegisterResponse, error) {
	return m.registerFn(req)
}

func (m *mockAuthService) Login(_ context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	return m.loginFn(req)
}

func (m *mockAuthService) RequestPasswordReset(_ context.Context, req *domain.PasswordResetCodeRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return "If an account exists for " + req.Email + ", a reset code has been sent.", nil
}

func (m *mockAuthService) ResetPassword(_ context.Context, req *domain.ResetPasswordRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if req.Code != "123456" {
		return "", domain.NewAuthenticationError("invalid or expired reset code")
	}
	return "Password reset successful for email: " + req.Email, nil
}

func (m *mockAuthService) VerifyEmail(_ context.Context, req *domain.VerifyEmailRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return "Verification link sent to " + req.Email, nil
}

func (m *mockAuthService) ConfirmEmail(_ context.Context, token string) (*domain.User, error) {
	return m.confirmFn(token)
}

func (m *mockAuthService) Profile(_ context.Context, id int64) (*domain.User, error) {
	return m.profileFn(id)
}

type mockLearningService struct {
	courses []domain.Course
	listErr error
}

func (m *mockLearningService) CreateCourse(_ context.Context, req *domain.CreateCourseRequest) (*domain.Course, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c := domain.Course{ID: 1, CourseName: req.CourseName, Description: req.Description}
	return &c, nil
}

func (m *mockLearningService) ListCourses(_ context.Context, limit, offset int) ([]domain.Course, error) {
	return m.courses, m.listErr
}

func (m *mockLearningService) Progress(_ context.Context) string {
	return "Learning progress endpoint working fine!"
}

type mockFeedbackService struct{}

func (m *mockFeedbackService) Submit(_ context.Context, req *domain.CreateFeedbackRequest) (*domain.Feedback, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &domain.Feedback{ID: 7, Message: req.Message, Rating: req.Rating}, nil
}

func (m *mockFeedbackService) List(_ context.Context, limit, offset int) ([]domain.Feedback, error) {
	return nil, nil
}

type mockRateLimitRepo struct {
	allowed bool
	err     error
	keys    []string
}

func (m *mockRateLimitRepo) CheckRateLimit(_ context.Context, key string, requests int, window time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allowed, m.err
}

func (m *mockRateLimitRepo) CleanupExpired(_ context.Context) (int64, error) {
	return 0, nil
}

// ---------- Test helpers ----------

const testSecret = "handler-test-secret"

type testEnv struct {
	srv      *httptest.Server
	auth     *mockAuthService
	learning *mockLearningService
	limiter  *mockRateLimitRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       testSecret,
			LoginRateLimit:  10,
			LoginRateWindow: time.Minute,
		},
		Email: config.EmailConfig{DevMode: true},
	}

	env := &testEnv{
		auth: &mockAuthService{
			registerFn: func(req *domain.CreateUserRequest) (*domain.RegisterResponse, error) {
				if err := req.Validate(); err != nil {
					return nil, err
				}
				if req.Email == "taken@x.com" {
					return nil, domain.ErrEmailTaken
				}
				return &domain.RegisterResponse{
					Message:   "User " + req.Username + " registered successfully with email " + req.Email + "!",
					User:      &domain.UserInfo{ID: 1, Username: req.Username, Email: req.Email},
					VerifyURL: "http://app.test/verify-email?token=abc",
				}, nil
			},
			loginFn: func(req *domain.LoginRequest) (*domain.LoginResponse, error) {
				if req.Email == "a@x.com" && req.Password == "p1" {
					return &domain.LoginResponse{Message: "Login successful for a@x.com", AccessToken: "tok"}, nil
				}
				return nil, domain.NewAuthenticationError("invalid email or password")
			},
			profileFn: func(id int64) (*domain.User, error) {
				if id != 1 {
					return nil, domain.ErrNotFound
				}
				return &domain.User{ID: 1, Username: "alice", Email: "a@x.com", Student: domain.Student{Department: "CS"}}, nil
			},
			confirmFn: func(token string) (*domain.User, error) {
				if token != "good" {
					return nil, domain.NewAuthenticationError("invalid or expired verification token")
				}
				return &domain.User{ID: 1, Email: "a@x.com", IsVerified: true}, nil
			},
		},
		learning: &mockLearningService{},
		limiter:  &mockRateLimitRepo{allowed: true},
	}

	h := handlers.New(env.auth, service.NewLessonService(), env.learning, &mockFeedbackService{}, env.limiter, cfg)

	r := chi.NewRouter()
	h.Mount(r)
	env.srv = httptest.NewServer(r)
	t.Cleanup(env.srv.Close)
	return env
}

func do(t *testing.T, method, url string, body interface{}, header http.Header) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

// ---------- Tests ----------

func TestRoot_Banner(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, http.MethodGet, env.srv.URL+"/", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Aicharya backend is running!", body["message"])
}

func TestSignup_Success(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, http.MethodPost, env.srv.URL+"/auth/signup",
		map[string]string{"username": "alice", "email": "a@x.com", "password": "p1"}, nil)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User alice registered successfully with email a@x.com!", body["message"])
	assert.Equal(t, "http://app.test/verify-email?token=abc", body["dev_verify_url"])
}

func TestSignup_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"missing email", map[string]string{"username": "bob", "password": "p1"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"duplicate", map[string]string{"username": "x", "email": "taken@x.com", "password": "p1"}, http.StatusConflict, "EMAIL_EXISTS"},
		{"bad json", "{not json", http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, env.srv.URL+"/auth/signup", tt.body, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body["code"])
		})
	}

	_, body := do(t, http.MethodPost, env.srv.URL+"/auth/signup", map[string]string{"username": "bob", "password": "p1"}, nil)
	assert.Equal(t, "Registration failed: Missing email or password.", body["error"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, http.MethodPost, env.srv.URL+"/auth/login", map[string]string{"email": "a@x.com", "password": "p1"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tok", body["access_token"])

	resp, body = do(t, http.MethodPost, env.srv.URL+"/auth/login", map[string]string{"email": "a@x.com", "password": "bad"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
	assert.Equal(t, "invalid email or password", body["error"])

	require.NotEmpty(t, env.limiter.keys)
	assert.Equal(t, "login:127.0.0.1", env.limiter.keys[0])
}

func TestLogin_GetNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := do(t, http.MethodGet, env.srv.URL+"/auth/login", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t)
	env.limiter.allowed = false

	resp, body := do(t, http.MethodPost, env.srv.URL+"/auth/login", map[string]string{"email": "a@x.com", "password": "p1"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["code"])

	env.limiter.err = errors.New("db down")
	resp, _ = do(t, http.MethodPost, env.srv.URL+"/auth/login", map[string]string{"email": "a@x.com", "password": "p1"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit_IgnoresForwardedFor(t *testing.T) {
	env := newTestEnv(t)

	for _, ip := range []string{"1.1.1.1", "2.2.2.2"} {
		do(t, http.MethodPost, env.srv.URL+"/auth/login",
			map[string]string{"email": "a@x.com", "password": "bad"},
			http.Header{"X-Forwarded-For": {ip}})
	}

	require.Len(t, env.limiter.keys, 2)
	assert.Equal(t, "login:127.0.0.1", env.limiter.keys[0])
	assert.Equal(t, env.limiter.keys[0], env.limiter.keys[1])
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, http.MethodPost, env.srv.URL+"/auth/verify-email", map[string]string{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid email format.", body["error"])

	resp, body = do(t, http.MethodPost, env.srv.URL+"/auth/verify-email", map[string]string{"email": "a@x.com"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Verification link sent to a@x.com", body["message"])
}

func TestConfirmEmail(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, http.MethodPost, env.srv.URL+"/auth/verify-email/confirm?token=good", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Email verified successfully", body["message"])

	resp, _ = do(t, http.MethodPost, env.srv.URL+"/auth/verify-email/confirm?token=bad", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, http.MethodPost, env.srv.URL+"/auth/password-reset", map[string]string{"email": "a@x.com"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "If an account exists for a@x.com, a reset code has been sent.", body["message"])

	resp, body = do(t, http.MethodPost, env.srv.URL+"/auth/reset-password",
		map[string]string{"email": "a@x.com", "code": "123456"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Password reset failed: new password cannot be empty.", body["error"])

	resp, body = do(t, http.MethodPost, env.srv.URL+"/auth/reset-password",
		map[string]string{"email": "a@x.com", "code": "123456", "new_password": "p2"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password reset successful for email: a@x.com", body["message"])

	resp, _ = do(t, http.MethodPost, env.srv.URL+"/auth/reset-password",
		map[string]string{"email": "a@x.com", "code": "000000", "new_password": "p2"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_RequiresJWT(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, http.MethodGet, env.srv.URL+"/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	resp, body = do(t, http.MethodGet, env.srv.URL+"/users/me", nil, http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", body["code"])

	token, err := auth.NewAccessToken(1, "a@x.com", domain.RoleStudent, testSecret, time.Minute)
	require.NoError(t, err)
	resp, body = do(t, http.MethodGet, env.srv.URL+"/users/me", nil, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "User: alice | Department: CS", body["message"])

	token, err = auth.NewAccessToken(2, "gone@x.com", domain.RoleStudent, testSecret, time.Minute)
	require.NoError(t, err)
	resp, body = do(t, http.MethodGet, env.srv.URL+"/users/me", nil, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestGenerateLesson(t *testing.T) {
	env := newTestEnv(t)

	_, body := do(t, http.MethodGet, env.srv.URL+"/ai/generateLesson", nil, nil)
	assert.Equal(t, "Java", body["topic"])
	assert.Equal(t, "Let's learn about classes, objects, and inheritance in Java!", body["message"])

	_, body = do(t, http.MethodGet, env.srv.URL+"/ai/generateLesson?topic=Machine+Learning", nil, nil)
	assert.Equal(t, "ML helps computers learn from data.", body["message"])

	_, body = do(t, http.MethodGet, env.srv.URL+"/ai/generateLesson?topic=Go", nil, nil)
	assert.Equal(t, "AI lesson generated successfully!", body["message"])
}

func TestLearning(t *testing.T) {
	env := newTestEnv(t)

	_, body := do(t, http.MethodGet, env.srv.URL+"/learning/progress", nil, nil)
	assert.Equal(t, "Learning progress endpoint working fine!", body["message"])

	resp, body := do(t, http.MethodGet, env.srv.URL+"/learning/courses?limit=500", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{}, body["courses"])
	assert.Equal(t, float64(20), body["limit"])

	resp, body = do(t, http.MethodPost, env.srv.URL+"/learning/courses", map[string]string{"course_name": "Java"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Course name and description are required", body["error"])

	resp, _ = do(t, http.MethodPost, env.srv.URL+"/learning/courses", map[string]string{"course_name": "Java", "description": "OOP"}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	env.learning.listErr = errors.New("connection refused")
	resp, body = do(t, http.MethodGet, env.srv.URL+"/learning/courses", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Equal(t, "Internal server error", body["error"])
}

func TestFeedback(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, http.MethodGet, env.srv.URL+"/feedback", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{}, body["feedback"])

	resp, body = do(t, http.MethodPost, env.srv.URL+"/feedback", map[string]interface{}{"message": "nice", "rating": 9}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Rating must be between 1 and 5.", body["error"])

	resp, _ = do(t, http.MethodPost, env.srv.URL+"/feedback", map[string]interface{}{"message": "nice", "rating": 5}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
