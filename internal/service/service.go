// Package service implements the pharmacy operations. Every mutation runs in a
// single transaction and returns apperror kinds the HTTP layer maps to statuses.
package service

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"pharmacy/m/internal/apperror"
	"pharmacy/m/internal/auth"
	"pharmacy/m/internal/store"
)

type Options struct {
	// DefaultUserPassword is assigned when an account is created or reset without one.
	DefaultUserPassword string
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

type Service struct {
	store     *store.Store
	passwords auth.PasswordHasher
	logger    *zap.Logger
	opts      Options
}

func New(st *store.Store, passwords auth.PasswordHasher, logger *zap.Logger, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, passwords: passwords, logger: logger, opts: opts}
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC().Truncate(time.Microsecond)
}

// internal wraps an infrastructure error unless it already carries a kind.
func internal(message string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, store.ErrDuplicate) {
		return apperror.Conflict("%s: duplicate value", message)
	}
	return apperror.Internal(message, err)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
