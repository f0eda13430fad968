package app

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/authpw"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/email"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
)

type SignUpResult struct {
	UserID string
	// DevVerificationToken is set only when SMTP is not configured so
	// local setups can complete verification without a mailbox.
	DevVerificationToken string
}

func (s *Service) SignUp(ctx context.Context, emailAddr, password, username string) (SignUpResult, error) {
	resp, err := s.accounts.SignUp(ctx, authpw.SignUpRequest{
		Email:    emailAddr,
		Password: password,
		Username: username,
	})
	if err != nil {
		return SignUpResult{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}

	result := SignUpResult{UserID: resp.UserID}
	if !s.mailConfigured() {
		result.DevVerificationToken = resp.VerificationToken
		return result, nil
	}

	html, err := email.RenderVerification(email.VerificationData{
		AppName:         "TeamTaskFlow",
		Username:        username,
		VerificationURL: s.cfg.AppBaseURL + "/verify-email?token=" + resp.VerificationToken,
	})
	if err != nil {
		log.Printf("signup: render verification email: %v", err)
		return result, nil
	}
	if err := s.mail.SendHTMLEmail([]string{strings.ToLower(strings.TrimSpace(emailAddr))}, "Verify your TeamTaskFlow account", html); err != nil {
		log.Printf("signup: send verification email: %v", err)
	}
	return result, nil
}

func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (Session, error) {
	resp, err := s.accounts.SignIn(ctx, authpw.SignInRequest{Email: emailAddr, Password: password})
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", nil)
	}
	if resp.RequiresVerify {
		return Session{}, domainError(http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Email address is not verified", nil)
	}
	return s.issueSession(ctx, resp.User)
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if err := s.accounts.VerifyEmail(ctx, token); err != nil {
		return domainError(http.StatusUnprocessableEntity, "INVALID_TOKEN", "Verification token is invalid or expired", nil)
	}
	return nil
}

type PasswordResetResult struct {
	// DevResetToken is set only when SMTP is not configured.
	DevResetToken string
}

func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) (PasswordResetResult, error) {
	token, err := s.accounts.RequestPasswordReset(ctx, emailAddr)
	if err != nil {
		return PasswordResetResult{}, err
	}
	if token == "" {
		// Unknown email: respond identically so accounts cannot be probed.
		return PasswordResetResult{}, nil
	}

	if !s.mailConfigured() {
		return PasswordResetResult{DevResetToken: token}, nil
	}

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
	if err != nil {
		return PasswordResetResult{}, nil
	}
	html, err := email.RenderPasswordReset(email.PasswordResetData{
		AppName:  "TeamTaskFlow",
		Username: user.Username,
		ResetURL: s.cfg.AppBaseURL + "/reset-password?token=" + token,
	})
	if err != nil {
		log.Printf("password reset: render email: %v", err)
		return PasswordResetResult{}, nil
	}
	if err := s.mail.SendHTMLEmail([]string{user.Email}, "Reset your TeamTaskFlow password", html); err != nil {
		log.Printf("password reset: send email: %v", err)
	}
	return PasswordResetResult{}, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.accounts.ResetPassword(ctx, authpw.ResetPasswordRequest{Token: token, NewPassword: newPassword}); err != nil {
		return domainError(http.StatusUnprocessableEntity, "INVALID_TOKEN", err.Error(), nil)
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]store.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) GetUser(ctx context.Context, userID string) (store.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, session Session, username, avatarColor string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "username is required", nil)
	}
	return s.store.UpdateUserProfile(ctx, session.UserID, username, avatarColor)
}

func (s *Service) GetPreferences(ctx context.Context, session Session) (store.NotificationPreferences, error) {
	return s.store.GetPreferences(ctx, session.UserID)
}

func (s *Service) SavePreferences(ctx context.Context, session Session, prefs store.NotificationPreferences) error {
	prefs.UserID = session.UserID
	return s.store.SavePreferences(ctx, prefs)
}
