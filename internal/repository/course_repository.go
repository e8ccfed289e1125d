package repository

import (
	"context"
	"time"

	"github.com/aicharya/aicharya-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CourseRepository interface {
	Create(ctx context.Context, req *domain.CreateCourseRequest) (*domain.Course, error)
	List(ctx context.Context, limit, offset int) ([]domain.Course, error)
}

type courseRepository struct {
	pool *pgxpool.Pool
}

func NewCourseRepository(pool *pgxpool.Pool) CourseRepository {
	return &courseRepository{pool: pool}
}

const courseCols = `id, course_name, description, class_number, created_at`

func (r *courseRepository) Create(ctx context.Context, req *domain.CreateCourseRequest) (*domain.Course, error) {
	const q = `
		INSERT INTO courses (course_name, description, class_number)
		VALUES ($1, $2, $3)
		RETURNING ` + courseCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Course
	err := r.pool.QueryRow(ctx, q, req.CourseName, req.Description, req.ClassNumber).Scan(
		&c.ID, &c.CourseName, &c.Description, &c.ClassNumber, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepository) List(ctx context.Context, limit, offset int) ([]domain.Course, error) {
	limit, offset = clampPage(limit, offset)

	const q = `
		SELECT ` + courseCols + `
		FROM courses
		ORDER BY class_number, id
		LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []domain.Course{}
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.CourseName, &c.Description, &c.ClassNumber, &c.CreatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}

	return courses, rows.Err()
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
