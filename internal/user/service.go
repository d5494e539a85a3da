package user

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"builders-pos/internal/apperr"
	"builders-pos/internal/logger"

	"go.uber.org/zap"
)

// resetCodeTTL is how long an emailed reset code stays valid.
const resetCodeTTL = 10 * time.Minute

type Service interface {
	Authenticate(ctx context.Context, username, password string) (Identity, error)
	Register(ctx context.Context, in RegisterInput) (User, error)
	RequestPasswordReset(ctx context.Context, usernameOrEmail string) (ResetRequest, error)
	VerifyResetCode(ctx context.Context, code string) (string, error)
	ResetPassword(ctx context.Context, username, password, confirm string) error
}

type service struct {
	repo    Repository
	now     func() time.Time
	newCode func() string
}

type ServiceOption func(*service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) { s.now = now }
}

func WithCodeGenerator(fn func() string) ServiceOption {
	return func(s *service) { s.newCode = fn }
}

func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{repo: repo, now: time.Now, newCode: sixDigitCode}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sixDigitCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}

// Authenticate compares the plaintext password of an active account.
func (s *service) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Authenticate"),
		zap.String("username", username),
	)

	if username == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if apperr.IsNotFound(err) {
			log.Info("authentication failed")
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if u.Password != password || u.Status != StatusActive {
		log.Info("authentication failed")
		return Identity{}, ErrInvalidCredentials
	}

	if err := s.repo.TouchLogin(ctx, u.ID, s.now()); err != nil {
		log.Warn("failed to record last login", zap.Error(err))
	}

	log.Info("user authenticated", zap.String("role", string(u.Role)))
	return u.Identity(), nil
}

// Register always creates a customer account.
func (s *service) Register(ctx context.Context, in RegisterInput) (User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	if in.Username == "" || in.Password == "" || in.Name == "" {
		return User{}, ErrMissingField
	}

	u, err := s.repo.Create(ctx, User{
		Username:  in.Username,
		Password:  in.Password,
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Role:      RoleCustomer,
		Name:      in.Name,
		Status:    StatusActive,
		CreatedAt: s.now(),
	})
	if err != nil {
		if !errors.Is(err, ErrUsernameExists) {
			log.Error("failed to create user", zap.String("username", in.Username), zap.Error(err))
		}
		return User{}, err
	}

	log.Info("customer registered", zap.Int64("user_id", u.ID))
	return *u, nil
}

func (s *service) RequestPasswordReset(ctx context.Context, usernameOrEmail string) (ResetRequest, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" {
		return ResetRequest{}, apperr.Validation("RequestPasswordReset", errors.New("enter username or email"))
	}

	u, err := s.repo.FindActive(ctx, usernameOrEmail)
	if err != nil {
		return ResetRequest{}, err
	}

	req := ResetRequest{
		Username: u.Username,
		Email:    u.Email,
		Code:     s.newCode(),
		Expiry:   s.now().Add(resetCodeTTL),
	}
	if err := s.repo.SaveResetRequest(ctx, req); err != nil {
		return ResetRequest{}, err
	}

	logger.FromCtx(ctx).Info("password reset requested",
		zap.String("layer", "service"),
		zap.String("method", "RequestPasswordReset"),
		zap.String("username", u.Username),
	)
	return req, nil
}

// VerifyResetCode returns the username of the newest unexpired request
// carrying code.
func (s *service) VerifyResetCode(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrInvalidResetCode
	}

	reqs, err := s.repo.ResetRequests(ctx)
	if err != nil {
		return "", err
	}
	now := s.now()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Code == code && reqs[i].Expiry.After(now) {
			return reqs[i].Username, nil
		}
	}
	return "", ErrInvalidResetCode
}

func (s *service) ResetPassword(ctx context.Context, username, password, confirm string) error {
	if password == "" || confirm == "" {
		return apperr.Validation("ResetPassword", errors.New("fill both password fields"))
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	if err := s.repo.UpdatePassword(ctx, username, password); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("password updated",
		zap.String("layer", "service"),
		zap.String("method", "ResetPassword"),
		zap.String("username", username),
	)
	return nil
}
