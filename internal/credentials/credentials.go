// Package credentials implements factory authentication: bcrypt hashing,
// login verification, and password changes.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/ecoguardians/energy-settlement/internal/config"
	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
)

// ErrInvalidCredentials is returned for any authentication failure. Callers
// never learn whether the factory exists or which check failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrWeakPassword indicates the new password is below the configured minimum length
type ErrWeakPassword struct {
	MinLength int
}

func (e ErrWeakPassword) Error() string {
	return fmt.Sprintf("password must be at least %d characters", e.MinLength)
}

// HashPassword produces a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the password matches the stored hash
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Service authenticates factories against their stored credential hashes
type Service struct {
	factoryRepo factory.Repository
	cfg         *config.CredentialsConfig
	logger      *slog.Logger
}

func NewService(logger *slog.Logger, cfg *config.CredentialsConfig, factoryRepo factory.Repository) *Service {
	return &Service{
		factoryRepo: factoryRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// Login verifies the factory's password and returns the factory on success.
// An account with no stored hash normally fails; with first-login bootstrap
// enabled it instead adopts the supplied password as its credential, which
// exists to migrate factories imported without hashes.
func (s *Service) Login(ctx context.Context, factoryID, password string) (*factory.Factory, error) {
	f, err := s.factoryRepo.GetByID(ctx, factoryID)
	if err != nil {
		var notFound factory.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if f.PasswordHash == "" {
		if !s.cfg.AllowFirstLoginBootstrap {
			s.logger.Warn("Login attempt against account with no credential hash", "factory_id", factoryID)
			return nil, ErrInvalidCredentials
		}
		return s.bootstrapCredential(ctx, f, password)
	}

	if !VerifyPassword(f.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return f, nil
}

func (s *Service) bootstrapCredential(ctx context.Context, f *factory.Factory, password string) (*factory.Factory, error) {
	if len(password) < s.cfg.MinPasswordLength {
		return nil, ErrInvalidCredentials
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	if err := s.factoryRepo.SetPasswordHash(ctx, f.ID, hash); err != nil {
		return nil, fmt.Errorf("failed to bootstrap credential: %w", err)
	}

	s.logger.Info("Bootstrapped credential on first login", "factory_id", f.ID)
	f.PasswordHash = hash
	return f, nil
}

// ChangePassword verifies the current password and installs a new hash
func (s *Service) ChangePassword(ctx context.Context, factoryID, currentPassword, newPassword string) error {
	if len(newPassword) < s.cfg.MinPasswordLength {
		return ErrWeakPassword{MinLength: s.cfg.MinPasswordLength}
	}

	f, err := s.Login(ctx, factoryID, currentPassword)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.factoryRepo.SetPasswordHash(ctx, f.ID, hash); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Info("Password changed", "factory_id", factoryID)
	return nil
}
