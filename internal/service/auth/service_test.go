package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/inkwell/cms/internal/domain"
	"github.com/inkwell/cms/internal/repository"
	"github.com/inkwell/cms/pkg/config"
)

type stubUserRepository struct {
	byUsername map[string]*domain.User
	byID       map[string]*domain.User
	createErr  error
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{
		byUsername: make(map[string]*domain.User),
		byID:       make(map[string]*domain.User),
	}
}

func (s *stubUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.byUsername[user.Username]; ok {
		return repository.ErrDuplicate
	}
	s.byUsername[user.Username] = user
	s.byID[user.ID] = user
	return nil
}

func (s *stubUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if user, ok := s.byUsername[username]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.APIConfig {
	return config.APIConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Minute}
}

func TestRegisterIssuesResolvableToken(t *testing.T) {
	svc := New(newStubUserRepository(), newLogger(), testConfig())

	user, token, err := svc.Register(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.CreatedAt.IsZero() {
		t.Fatalf("expected created timestamp")
	}

	resolved, err := svc.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != user.ID {
		t.Fatalf("resolved %s, expected %s", resolved, user.ID)
	}
}

func TestRegisterRejectsEmptyFields(t *testing.T) {
	svc := New(newStubUserRepository(), newLogger(), testConfig())

	cases := []struct{ username, password string }{
		{"", "pw"},
		{"alice", ""},
		{"   ", "pw"},
	}
	for _, tc := range cases {
		if _, _, err := svc.Register(context.Background(), tc.username, tc.password); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("register(%q, %q): expected ErrInvalidInput, got %v", tc.username, tc.password, err)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := New(newStubUserRepository(), newLogger(), testConfig())

	if _, _, err := svc.Register(context.Background(), "alice", "pw1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := svc.Register(context.Background(), "alice", "pw2"); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc := New(newStubUserRepository(), newLogger(), testConfig())

	registered, _, err := svc.Register(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, token, err := svc.Login(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("login returned wrong user: %s", user.ID)
	}
	if resolved, err := svc.Resolve(context.Background(), token); err != nil || resolved != registered.ID {
		t.Fatalf("resolve after login: %s, %v", resolved, err)
	}
}

func TestLoginWrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	svc := New(newStubUserRepository(), newLogger(), testConfig())

	if _, _, err := svc.Register(context.Background(), "alice", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, wrongPass := svc.Login(context.Background(), "alice", "wrong")
	_, _, unknown := svc.Login(context.Background(), "bob", "pw1")

	if !errors.Is(wrongPass, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if !errors.Is(unknown, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknown)
	}
}

func TestLoginSurfacesStorageFaults(t *testing.T) {
	repo := newStubUserRepository()
	svc := New(repo, newLogger(), testConfig())
	if _, _, err := svc.Register(context.Background(), "alice", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	repo.createErr = repository.ErrUnavailable
	if _, _, err := svc.Register(context.Background(), "bob", "pw2"); !errors.Is(err, repository.ErrUnavailable) {
		t.Fatalf("expected storage fault to propagate, got %v", err)
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	svc := New(newStubUserRepository(), newLogger(), testConfig())

	for _, token := range []string{"", "   ", "garbage", "a.b.c"} {
		if _, err := svc.Resolve(context.Background(), token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("resolve(%q): expected ErrUnauthenticated, got %v", token, err)
		}
	}
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	svc := New(newStubUserRepository(), newLogger(), cfg)

	_, token, err := svc.Register(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Resolve(context.Background(), token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestProfileReturnsAccount(t *testing.T) {
	svc := New(newStubUserRepository(), newLogger(), testConfig())

	registered, _, err := svc.Register(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Profile(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", user)
	}
	if _, err := svc.Profile(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
