package repository

import (
	"context"
	"time"

	"github.com/aicharya/aicharya-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FeedbackRepository interface {
	Create(ctx context.Context, req *domain.CreateFeedbackRequest) (*domain.Feedback, error)
	List(ctx context.Context, limit, offset int) ([]domain.Feedback, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

const feedbackCols = `id, message, rating, username, email, created_at`

func (r *feedbackRepository) Create(ctx context.Context, req *domain.CreateFeedbackRequest) (*domain.Feedback, error) {
	const q = `
		INSERT INTO feedback (message, rating, username, email)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + feedbackCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var f domain.Feedback
	err := r.pool.QueryRow(ctx, q, req.Message, req.Rating, req.Username, req.Email).Scan(
		&f.ID, &f.Message, &f.Rating, &f.Username, &f.Email, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *feedbackRepository) List(ctx context.Context, limit, offset int) ([]domain.Feedback, error) {
	limit, offset = clampPage(limit, offset)

	const q = `
		SELECT ` + feedbackCols + `
		FROM feedback
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Feedback{}
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.Message, &f.Rating, &f.Username, &f.Email, &f.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, f)
	}

	return items, rows.Err()
}
