package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authgate/pkg/email"
	"github.com/dmitrymomot/authgate/pkg/logger"
	"github.com/dmitrymomot/authgate/pkg/token"
)

// SendVerificationEmail generates a fresh verification token for the account
// and emails the verification link. Unlike the registration path this is an
// explicit user action, so a delivery failure propagates as ErrEmailDelivery
// instead of degrading silently.
func (s *Service) SendVerificationEmail(ctx context.Context, emailAddr string) error {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}

	if err := s.issueVerification(ctx, user); err != nil {
		return err
	}
	return nil
}

// issueVerification stores a new verification token (silently invalidating
// any prior one) and sends the verification email.
func (s *Service) issueVerification(ctx context.Context, user *User) error {
	tok, err := token.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	expiresAt := time.Now().Add(s.verificationTTL)
	if err := s.store.SetVerificationToken(ctx, user.ID, tok, expiresAt); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	body, err := email.RenderVerificationEmail(email.VerificationEmailData{
		Name:      user.FirstName,
		VerifyURL: s.baseURL + "/verify-email?token=" + tok,
	})
	if err != nil {
		return err
	}

	if err := s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   user.Email,
		Subject:  "Confirm your email address",
		BodyHTML: body,
		Tag:      "email_verification",
	}); err != nil {
		return errors.Join(ErrEmailDelivery, err)
	}
	return nil
}

// VerifyEmail consumes a verification token: the user is marked verified and
// the token cleared in a single conditional update, so a token never
// verifies more than once. A replayed token on an already-verified account
// fails with ErrEmailAlreadyVerified.
func (s *Service) VerifyEmail(ctx context.Context, tok string) error {
	_, err := s.store.ConsumeVerificationToken(ctx, tok)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("failed to consume verification token: %w", err)
	}

	// Nothing matched: either the token is unknown/expired, or it is still
	// stored on an account that was verified through another path. The
	// fallback read only classifies the failure; consumption stays atomic.
	if user, err := s.store.GetUserByVerificationToken(ctx, tok); err == nil && user.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}
	return ErrInvalidVerificationToken
}

// ForgotPassword starts the password reset flow. It always reports success:
// unknown emails and accounts that sign in through an external provider
// silently no-op, so the endpoint cannot be used to enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("failed to look up user for password reset",
				logger.Error(err),
				logger.Component("auth"),
			)
		}
		return nil
	}
	if user.Provider != ProviderEmail {
		return nil
	}

	tok, err := token.Generate()
	if err != nil {
		s.logger.Error("failed to generate reset token", logger.Error(err), logger.Component("auth"))
		return nil
	}

	expiresAt := time.Now().Add(s.resetTTL)
	if err := s.store.SetResetToken(ctx, user.ID, tok, expiresAt); err != nil {
		s.logger.Error("failed to store reset token",
			logger.UserID(user.ID.String()),
			logger.Error(err),
			logger.Component("auth"),
		)
		return nil
	}

	body, err := email.RenderPasswordResetEmail(email.PasswordResetEmailData{
		Name:     user.FirstName,
		ResetURL: s.baseURL + "/reset-password?token=" + tok,
		TTLHours: int(s.resetTTL.Hours()),
	})
	if err != nil {
		s.logger.Error("failed to render reset email", logger.Error(err), logger.Component("auth"))
		return nil
	}

	if err := s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   user.Email,
		Subject:  "Reset your password",
		BodyHTML: body,
		Tag:      "password_reset",
	}); err != nil {
		s.logger.Error("failed to send reset email",
			logger.UserID(user.ID.String()),
			logger.Error(err),
			logger.Component("auth"),
		)
	}
	return nil
}

// ResetPassword consumes a reset token and installs the new password in a
// single conditional update, clearing the token so it cannot be reused.
func (s *Service) ResetPassword(ctx context.Context, tok, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.store.ConsumeResetToken(ctx, tok, hash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	return nil
}
