package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aicharya/aicharya-backend/internal/domain"
	"github.com/aicharya/aicharya-backend/internal/repository"
	"github.com/aicharya/aicharya-backend/pkg/config"
	"github.com/alexedwards/argon2id"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testParams = &argon2id.Params{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type fakeUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]*domain.User
	creates int
	finds   int

	// failUpdates makes the next n UpdatePassword calls fail.
	failUpdates int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, req *domain.CreateUserRequest, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if _, ok := r.byEmail[req.Email]; ok {
		return nil, domain.ErrEmailTaken
	}
	r.nextID++
	now := time.Now()
	u := &domain.User{
		ID:           r.nextID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         domain.RoleStudent,
		Active:       true,
		Student:      domain.Student{Department: req.Department, Year: req.Year},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byEmail[u.Email] = u
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if u, ok := r.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	r.mu.Lock()
	if r.failUpdates > 0 {
		r.failUpdates--
		r.mu.Unlock()
		return errors.New("connection reset")
	}
	r.mu.Unlock()
	return r.update(userID, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (r *fakeUserRepo) MarkVerified(ctx context.Context, userID int64) error {
	return r.update(userID, func(u *domain.User) { u.IsVerified = true })
}

func (r *fakeUserRepo) update(userID int64, fn func(u *domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == userID {
			fn(u)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeUserRepo) get(email string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email]
}

type verifyRecord struct {
	userID    int64
	expiresAt time.Time
	used      bool
}

type fakeVerifyRepo struct {
	mu        sync.Mutex
	tokens    map[string]*verifyRecord
	createErr error
}

func newFakeVerifyRepo() *fakeVerifyRepo {
	return &fakeVerifyRepo{tokens: map[string]*verifyRecord{}}
}

func (r *fakeVerifyRepo) CreateEmailVerification(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.tokens[token] = &verifyRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (r *fakeVerifyRepo) ConsumeEmailVerification(ctx context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.tokens[token]
	if !ok || rec.used || time.Now().After(rec.expiresAt) {
		return 0, nil
	}
	rec.used = true
	return rec.userID, nil
}

func (r *fakeVerifyRepo) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	return 0, nil
}

func (r *fakeVerifyRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type sentMail struct {
	kind  string
	to    string
	url   string
	token string
	code  string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendVerificationEmail(toEmail, toName, verifyURL, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "verify", to: toEmail, url: verifyURL, token: token})
	return nil
}

func (m *fakeMailer) SendPasswordResetEmail(toEmail, toName, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "reset", to: toEmail, code: code})
	return nil
}

func (m *fakeMailer) last(kind string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *fakePublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published(subject string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

type authFixture struct {
	svc    *authService
	users  *fakeUserRepo
	verify *fakeVerifyRepo
	mail   *fakeMailer
	bus    *fakePublisher
	cfg    *config.Config
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret",
			AccessTokenTTL:       15 * time.Minute,
			EmailVerificationTTL: 2 * time.Hour,
			PasswordResetTTL:     15 * time.Minute,
			AppBaseURL:           "http://app.test/",
		},
	}

	f := &authFixture{
		users:  newFakeUserRepo(),
		verify: newFakeVerifyRepo(),
		mail:   &fakeMailer{},
		bus:    &fakePublisher{},
		cfg:    cfg,
	}
	svc := NewAuthService(f.users, f.verify, repository.NewResetStore(client, "test"), f.mail, f.bus, cfg).(*authService)
	svc.params = testParams
	f.svc = svc
	return f
}

func (f *authFixture) register(t *testing.T, username, email, password string) *domain.RegisterResponse {
	t.Helper()
	res, err := f.svc.Register(context.Background(), &domain.CreateUserRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res
}
