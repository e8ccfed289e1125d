package service

import (
	"context"
	"fmt"

	"github.com/aicharya/aicharya-backend/internal/domain"
	"github.com/aicharya/aicharya-backend/internal/repository"
	"github.com/aicharya/aicharya-backend/pkg/events"
	"github.com/aicharya/aicharya-backend/pkg/logger"
)

const progressMessage = "Learning progress endpoint working fine!"

type LearningService interface {
	CreateCourse(ctx context.Context, req *domain.CreateCourseRequest) (*domain.Course, error)
	ListCourses(ctx context.Context, limit, offset int) ([]domain.Course, error)
	Progress(ctx context.Context) string
}

type learningService struct {
	courseRepo repository.CourseRepository
	eventBus   events.Publisher
}

func NewLearningService(courseRepo repository.CourseRepository, eventBus events.Publisher) LearningService {
	return &learningService{courseRepo: courseRepo, eventBus: eventBus}
}

func (s *learningService) CreateCourse(ctx context.Context, req *domain.CreateCourseRequest) (*domain.Course, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	course, err := s.courseRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.CourseCreated, events.CourseCreatedEvent{
		CourseID:    course.ID,
		CourseName:  course.CourseName,
		ClassNumber: course.ClassNumber,
		CreatedAt:   course.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish course created event", "error", err, "course_id", course.ID)
	}

	return course, nil
}

func (s *learningService) ListCourses(ctx context.Context, limit, offset int) ([]domain.Course, error) {
	courses, err := s.courseRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *learningService) Progress(ctx context.Context) string {
	return progressMessage
}
