package service

import (
	"context"
	"strings"

	"github.com/aicharya/aicharya-backend/pkg/logger"
)

const (
	DefaultLessonTopic   = "Java"
	genericLessonContent = "AI lesson generated successfully!"
)

var lessons = map[string]string{
	"Java":             "Let's learn about classes, objects, and inheritance in Java!",
	"C Programming":    "Arrays and pointers are the backbone of C.",
	"Machine Learning": "ML helps computers learn from data.",
}

type LessonService interface {
	GenerateLesson(ctx context.Context, topic string) string
}

type lessonService struct{}

func NewLessonService() LessonService {
	return &lessonService{}
}

// GenerateLesson returns the canned lesson for topic, falling back to a
// generic message for topics without one.
func (s *lessonService) GenerateLesson(ctx context.Context, topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultLessonTopic
	}
	logger.DebugContext(ctx, "Generating lesson", "topic", topic)

	if content, ok := lessons[topic]; ok {
		return content
	}
	return genericLessonContent
}
