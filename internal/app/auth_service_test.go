package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecotrack/internal/app"
	"ecotrack/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type mockSessionRepo struct {
	createFn        func(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, userAgent, ip, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

func TestLoginSuccess(t *testing.T) {
	password := "testpass123"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	users := &mockUserRepo{
		getByUsernameFn: func(_ context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: username, PasswordHash: string(hash)}, nil
		},
	}
	var sessionToken string
	sessions := &mockSessionRepo{
		createFn: func(_ context.Context, _ int64, token, _, _ string, _ time.Time) error {
			sessionToken = token
			return nil
		},
	}
	svc := app.NewAuthService(users, sessions)

	token, err := svc.Login(context.Background(), "testuser", password, "agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" || token != sessionToken {
		t.Fatalf("token %q not persisted to session store", token)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	users := &mockUserRepo{
		getByUsernameFn: func(_ context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: username, PasswordHash: string(hash)}, nil
		},
	}
	svc := app.NewAuthService(users, &mockSessionRepo{})

	_, err := svc.Login(context.Background(), "testuser", "wrong", "agent", "127.0.0.1")
	if !errors.Is(err, app.ErrInvalidCredentials) {
		t.Fatalf("err = %v; want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := app.NewAuthService(&mockUserRepo{}, &mockSessionRepo{})
	_, err := svc.Login(context.Background(), "ghost", "pw", "agent", "127.0.0.1")
	if !errors.Is(err, app.ErrInvalidCredentials) {
		t.Fatalf("err = %v; want ErrInvalidCredentials", err)
	}
}

func TestValidateSessionExpired(t *testing.T) {
	deleted := false
	sessions := &mockSessionRepo{
		getByTokenFn: func(_ context.Context, token string) (*domain.Session, error) {
			return &domain.Session{
				Token:     token,
				UserID:    1,
				UserAgent: "agent",
				ExpiresAt: time.Now().Add(-time.Hour),
			}, nil
		},
		deleteFn: func(_ context.Context, _ string) error {
			deleted = true
			return nil
		},
	}
	svc := app.NewAuthService(&mockUserRepo{}, sessions)

	_, err := svc.ValidateSession(context.Background(), "tok", "agent")
	if !errors.Is(err, app.ErrSessionExpired) {
		t.Fatalf("err = %v; want ErrSessionExpired", err)
	}
	if !deleted {
		t.Error("expired session should be deleted")
	}
}

func TestValidateSessionUserAgentMismatch(t *testing.T) {
	sessions := &mockSessionRepo{
		getByTokenFn: func(_ context.Context, token string) (*domain.Session, error) {
			return &domain.Session{
				Token:     token,
				UserID:    1,
				UserAgent: "agent-a",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	svc := app.NewAuthService(&mockUserRepo{}, sessions)

	_, err := svc.ValidateSession(context.Background(), "tok", "agent-b")
	if !errors.Is(err, app.ErrSessionExpired) {
		t.Fatalf("err = %v; want ErrSessionExpired on user-agent mismatch", err)
	}
}

func TestValidateForwardAuthAutoCreates(t *testing.T) {
	created := false
	users := &mockUserRepo{
		getByUsernameFn: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, nil
		},
		createFn: func(_ context.Context, username, _ string) (*domain.User, error) {
			created = true
			return &domain.User{ID: 7, Username: username}, nil
		},
	}
	svc := app.NewAuthService(users, &mockSessionRepo{})

	user, err := svc.ValidateForwardAuth(context.Background(), "sso-user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || user.ID != 7 {
		t.Fatalf("expected auto-created user, got %+v", user)
	}
}

func TestCreateInitialUserRefusesSecond(t *testing.T) {
	users := &mockUserRepo{
		countFn: func(_ context.Context) (int, error) { return 1, nil },
	}
	svc := app.NewAuthService(users, &mockSessionRepo{})

	if err := svc.CreateInitialUser(context.Background(), "u", "pw"); err == nil {
		t.Fatal("expected error when users already exist")
	}
}
