package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/aicharya/aicharya-backend/internal/domain"
	"github.com/aicharya/aicharya-backend/internal/repository"
	"github.com/aicharya/aicharya-backend/internal/service"
	"github.com/aicharya/aicharya-backend/pkg/auth"
	"github.com/aicharya/aicharya-backend/pkg/config"
	"github.com/aicharya/aicharya-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ctxKey string

const claimsKey ctxKey = "claims"

type Handlers struct {
	authService     service.AuthService
	lessonService   service.LessonService
	learningService service.LearningService
	feedbackService service.FeedbackService
	rateLimitRepo   repository.RateLimitRepository
	config          *config.Config
}

func New(
	authService service.AuthService,
	lessonService service.LessonService,
	learningService service.LearningService,
	feedbackService service.FeedbackService,
	rateLimitRepo repository.RateLimitRepository,
	config *config.Config,
) *Handlers {
	return &Handlers{
		authService:     authService,
		lessonService:   lessonService,
		learningService: learningService,
		feedbackService: feedbackService,
		rateLimitRepo:   rateLimitRepo,
		config:          config,
	}
}

// Mount registers every API route on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Get("/", h.Root)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Register)
		r.With(h.RateLimit("login")).Post("/login", h.Login)
		r.With(h.RateLimit("verify")).Post("/verify-email", h.VerifyEmail)
		r.Post("/verify-email/confirm", h.ConfirmEmail)
		r.With(h.RateLimit("reset")).Post("/password-reset", h.RequestPasswordReset)
		r.With(h.RateLimit("reset")).Post("/reset-password", h.ResetPassword)
	})

	r.With(h.RequireJWT()).Get("/users/me", h.Me)

	r.Get("/ai/generateLesson", h.GenerateLesson)

	r.Route("/learning", func(r chi.Router) {
		r.Get("/progress", h.Progress)
		r.Get("/courses", h.ListCourses)
		r.Post("/courses", h.CreateCourse)
	})

	r.Get("/feedback", h.ListFeedback)
	r.Post("/feedback", h.SubmitFeedback)
}

// RequireJWT rejects requests without a valid bearer access token.
func (h *Handlers) RequireJWT() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "UNAUTHORIZED")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit caps requests per client IP for one scope. A failing limiter
// lets the request through.
func (h *Handlers) RateLimit(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + getClientIP(r, h.config.Server.TrustProxyHeaders)

			allowed, err := h.rateLimitRepo.CheckRateLimit(r.Context(), key, h.config.Auth.LoginRateLimit, h.config.Auth.LoginRateWindow)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err, "scope", scope)
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "RATE_LIMIT_EXCEEDED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// getClientIP returns the peer address. Forwarding headers are client
// controlled, so they are read only when trustProxy is set.
func getClientIP(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return remoteHost(r)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	response := map[string]string{
		"error": message,
		"code":  code,
	}
	writeJSON(w, statusCode, response)
}

// writeServiceError maps service errors onto status codes. Anything
// unrecognised is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	var aErr *domain.AuthenticationError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Message, "INVALID_INPUT")
	case errors.As(err, &aErr):
		writeError(w, http.StatusUnauthorized, aErr.Message, "UNAUTHORIZED")
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error(), "EMAIL_EXISTS")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found", "NOT_FOUND")
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
