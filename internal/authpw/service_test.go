package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
)

// mockUserStore is an in-memory UserStore for testing
type mockUserStore struct {
	users      map[string]store.User
	emailIndex map[string]string
	resets     map[string]resetEntry
}

type resetEntry struct {
	userID    string
	expiresAt time.Time
	used      bool
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:      make(map[string]store.User),
		emailIndex: make(map[string]string),
		resets:     make(map[string]resetEntry),
	}
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	if userID, ok := m.emailIndex[email]; ok {
		return m.users[userID], nil
	}
	return store.User{}, errors.New("user not found")
}

func (m *mockUserStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return store.User{}, errors.New("user not found")
}

func (m *mockUserStore) CreateUser(_ context.Context, user store.User) error {
	m.users[user.ID] = user
	m.emailIndex[user.Email] = user.ID
	return nil
}

func (m *mockUserStore) UpdateUserVerificationToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	if user, ok := m.users[userID]; ok {
		user.VerificationToken = token
		user.VerificationExpiresAt = &expiresAt
		m.users[userID] = user
	}
	return nil
}

func (m *mockUserStore) VerifyUserEmail(_ context.Context, token string) error {
	for id, user := range m.users {
		if user.VerificationToken == token {
			user.IsEmailVerified = true
			user.VerificationToken = ""
			m.users[id] = user
			return nil
		}
	}
	return errors.New("invalid or expired verification token")
}

func (m *mockUserStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	if user, ok := m.users[userID]; ok {
		user.PasswordHash = passwordHash
		m.users[userID] = user
	}
	return nil
}

func (m *mockUserStore) CreatePasswordReset(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.resets[token] = resetEntry{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *mockUserStore) GetPasswordReset(_ context.Context, token string) (string, error) {
	entry, ok := m.resets[token]
	if !ok || entry.used || time.Now().After(entry.expiresAt) {
		return "", errors.New("not found")
	}
	return entry.userID, nil
}

func (m *mockUserStore) MarkPasswordResetUsed(_ context.Context, token string) error {
	entry := m.resets[token]
	entry.used = true
	m.resets[token] = entry
	return nil
}

func TestSignUpCreatesUnverifiedUser(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)

	resp, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:    "Avery@Example.com",
		Password: "password123",
		Username: "Avery",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if resp.VerificationToken == "" {
		t.Fatal("expected verification token")
	}

	user, err := mock.GetUserByEmail(context.Background(), "avery@example.com")
	if err != nil {
		t.Fatalf("expected user stored under lowercased email: %v", err)
	}
	if user.IsEmailVerified {
		t.Fatal("expected unverified user")
	}
	if user.PasswordHash == "password123" {
		t.Fatal("password stored unhashed")
	}
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	svc := NewService(newMockUserStore())
	if _, err := svc.SignUp(context.Background(), SignUpRequest{
		Email: "a@b.c", Password: "short", Username: "A",
	}); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "password123", Username: "A"}); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "password123", Username: "B"}); err == nil {
		t.Fatal("expected duplicate email error")
	}
}

func TestSignInFlow(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "password123", Username: "A"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	// Unverified sign-in flags RequiresVerify.
	signIn, err := svc.SignIn(ctx, SignInRequest{Email: "a@b.c", Password: "password123"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !signIn.RequiresVerify {
		t.Fatal("expected RequiresVerify before verification")
	}

	if err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	signIn, err = svc.SignIn(ctx, SignInRequest{Email: "a@b.c", Password: "password123"})
	if err != nil {
		t.Fatalf("SignIn after verify: %v", err)
	}
	if signIn.RequiresVerify {
		t.Fatal("expected verified sign-in")
	}

	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@b.c", Password: "wrong-password"}); err == nil {
		t.Fatal("expected invalid credentials error")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "password123", Username: "A"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	token, err := svc.RequestPasswordReset(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if token == "" {
		t.Fatal("expected reset token")
	}

	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "newpassword1"}); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@b.c", Password: "newpassword1"}); err != nil {
		t.Fatalf("SignIn with new password: %v", err)
	}

	// Token is single use.
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "anotherpass1"}); err == nil {
		t.Fatal("expected reused token to fail")
	}
}

func TestRequestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	svc := NewService(newMockUserStore())
	token, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if token != "" {
		t.Fatal("expected empty token for unknown email")
	}
}
