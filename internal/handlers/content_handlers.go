package handlers

import (
	"net/http"
	"strings"

	"github.com/aicharya/aicharya-backend/internal/domain"
	"github.com/aicharya/aicharya-backend/internal/service"
)

const bannerMessage = "Aicharya backend is running!"

func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": bannerMessage})
}

// GenerateLesson serves the canned lesson for ?topic=, Java by default.
func (h *Handlers) GenerateLesson(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	content := h.lessonService.GenerateLesson(r.Context(), topic)

	if topic == "" {
		topic = service.DefaultLessonTopic
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"topic":   topic,
		"message": content,
	})
}

func (h *Handlers) Progress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": h.learningService.Progress(r.Context()),
	})
}

func (h *Handlers) ListCourses(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	courses, err := h.learningService.ListCourses(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if courses == nil {
		courses = []domain.Course{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handlers) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	course, err := h.learningService.CreateCourse(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Course created successfully",
		"course":  course,
	})
}

func (h *Handlers) ListFeedback(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	items, err := h.feedbackService.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Feedback{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": items,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	fb, err := h.feedbackService.Submit(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Thank you for your feedback!",
		"feedback": fb,
	})
}
