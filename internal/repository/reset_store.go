package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aicharya/aicharya-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrResetNotFound         = errors.New("reset code not found or expired")
	ErrResetCodeMismatch     = errors.New("reset code mismatch")
	ErrResetAttemptsExceeded = errors.New("reset attempts exceeded")
)

// ResetStore keeps pending password resets, one per email, with a TTL.
type ResetStore interface {
	Save(ctx context.Context, email string, userID int64, code string, ttl time.Duration) error
	// Consume checks code against the pending reset for email. A match deletes
	// the record and returns its user id. A mismatch counts an attempt and the
	// record is dropped once domain.MaxResetAttempts is reached.
	Consume(ctx context.Context, email, code string) (int64, error)
}

type redisResetStore struct {
	client redis.UniversalClient
	prefix string
	cost   int
}

func NewResetStore(client redis.UniversalClient, prefix string) ResetStore {
	if prefix == "" {
		prefix = "pwreset"
	}
	return &redisResetStore{client: client, prefix: prefix, cost: bcrypt.DefaultCost}
}

func (s *redisResetStore) key(email string) string {
	return s.prefix + ":" + email
}

func (s *redisResetStore) Save(ctx context.Context, email string, userID int64, code string, ttl time.Duration) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return fmt.Errorf("hash reset code: %w", err)
	}

	rec := domain.PasswordResetRecord{
		UserID:    userID,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(ttl),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// A new request replaces any pending code for the same email.
	if err := s.client.Set(ctx, s.key(email), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save reset code: %w", err)
	}
	return nil
}

func (s *redisResetStore) Consume(ctx context.Context, email, code string) (int64, error) {
	const maxRetries = 4
	key := s.key(email)

	for i := 0; i < maxRetries; i++ {
		var userID int64

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrResetNotFound
			}
			if err != nil {
				return err
			}

			var rec domain.PasswordResetRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("decode reset record: %w", err)
			}

			if !rec.CanAttempt() {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrResetNotFound
			}

			if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
				rec.Attempts++
				if rec.Attempts >= domain.MaxResetAttempts {
					_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return ErrResetAttemptsExceeded
				}

				updated, err := json.Marshal(rec)
				if err != nil {
					return err
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, redis.KeepTTL)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrResetCodeMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}
			userID = rec.UserID
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return userID, nil
	}

	return 0, ErrResetNotFound
}
