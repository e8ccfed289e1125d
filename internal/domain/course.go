package domain

import (
	"strings"
	"time"
)

type Course struct {
	ID          int64     `json:"id"`
	CourseName  string    `json:"course_name"`
	Description string    `json:"description"`
	ClassNumber int       `json:"class_number"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateCourseRequest struct {
	CourseName  string `json:"course_name"`
	Description string `json:"description"`
	ClassNumber int    `json:"class_number"`
}

func (r *CreateCourseRequest) Normalize() {
	r.CourseName = strings.TrimSpace(r.CourseName)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreateCourseRequest) Validate() error {
	if r.CourseName == "" || r.Description == "" {
		return NewValidationError("Course name and description are required")
	}
	if r.ClassNumber < 0 {
		return NewValidationError("class number must not be negative")
	}
	return nil
}
