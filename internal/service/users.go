package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperror"
)

const minPasswordLength = 6

type UserInput struct {
	Username *string     `json:"username"`
	Name     string      `json:"name"`
	Email    *string     `json:"email"`
	Role     domain.Role `json:"role"`
	Password *string     `json:"password"`
	Active   *bool       `json:"active"`
}

type UserUpdate struct {
	Name  string      `json:"name"`
	Email *string     `json:"email"`
	Role  domain.Role `json:"role"`
}

// Authenticate resolves identifier as a username or email and checks the
// password. Unknown, inactive and wrong-password cases share one error.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperror.InvalidInput("username is required")
	}
	db := s.store.DB()
	user, err := s.store.FindUserByIdentifier(ctx, db, identifier)
	if err != nil {
		return nil, internal("unable to authenticate", err)
	}
	if user == nil || !user.Active || !s.passwords.Verify(password, user.PasswordHash) {
		return nil, apperror.Unauthorized("invalid username or password")
	}
	if s.passwords.NeedsRehash(user.PasswordHash) {
		if digest, err := s.passwords.Hash(password); err == nil {
			if err := s.store.SetPassword(ctx, db, user.ID, digest); err != nil {
				s.logger.Warn("password rehash failed", zap.Int64("user_id", user.ID), zap.Error(err))
			} else {
				user.PasswordHash = digest
			}
		}
	}
	return user, nil
}

// ResolveIdentity loads the active user behind an authenticated request.
func (s *Service) ResolveIdentity(ctx context.Context, userID int64) (*domain.User, error) {
	if userID <= 0 {
		return nil, apperror.Unauthorized("missing user identity")
	}
	user, err := s.store.GetUser(ctx, s.store.DB(), userID)
	if err != nil {
		return nil, internal("unable to resolve user", err)
	}
	if user == nil || !user.Active {
		return nil, apperror.Unauthorized("invalid or inactive user")
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, user *domain.User, current, next string) error {
	if !s.passwords.Verify(current, user.PasswordHash) {
		return apperror.InvalidInput("current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return apperror.InvalidInput("new password must be at least %d characters", minPasswordLength)
	}
	digest, err := s.passwords.Hash(next)
	if err != nil {
		return internal("unable to change password", err)
	}
	if err := s.store.SetPassword(ctx, s.store.DB(), user.ID, digest); err != nil {
		return internal("unable to change password", err)
	}
	user.PasswordHash = digest
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.ListUsers(ctx, s.store.DB())
	if err != nil {
		return nil, internal("unable to list users", err)
	}
	return users, nil
}

func (s *Service) CreateUser(ctx context.Context, in UserInput) (*domain.User, error) {
	email := trimmed(in.Email)
	username := ""
	if u := trimmed(in.Username); u != nil {
		username = *u
	} else if email != nil {
		username = *email
	}
	if username == "" {
		return nil, apperror.InvalidInput("username or email is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.InvalidInput("name is required")
	}
	role := domain.Role(strings.TrimSpace(string(in.Role)))
	if !role.Valid() {
		return nil, apperror.InvalidInput("unknown role %q", in.Role)
	}
	password := s.opts.DefaultUserPassword
	if in.Password != nil && *in.Password != "" {
		password = *in.Password
	}
	if password == "" {
		return nil, apperror.InvalidInput("password is required")
	}
	digest, err := s.passwords.Hash(password)
	if err != nil {
		return nil, internal("unable to create user", err)
	}

	user := &domain.User{
		Username:     username,
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: digest,
		Active:       in.Active == nil || *in.Active,
		CreatedAt:    s.now(),
	}
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.store.FindUserConflict(ctx, tx, username, deref(email), 0)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Conflict("user with same username or email already exists")
		}
		return s.store.InsertUser(ctx, tx, user)
	})
	if err != nil {
		return nil, internal("unable to create user", err)
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, id int64, in UserUpdate) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.InvalidInput("name is required")
	}
	role := domain.Role(strings.TrimSpace(string(in.Role)))
	if !role.Valid() {
		return nil, apperror.InvalidInput("unknown role %q", in.Role)
	}
	email := trimmed(in.Email)

	var user *domain.User
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		user, err = s.store.GetUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return apperror.NotFound("user %d not found", id)
		}
		if email != nil && deref(email) != deref(user.Email) {
			existing, err := s.store.FindUserConflict(ctx, tx, "", *email, id)
			if err != nil {
				return err
			}
			if existing != nil {
				return apperror.Conflict("email already in use")
			}
		}
		user.Name, user.Email, user.Role = name, email, role
		return s.store.UpdateUser(ctx, tx, user)
	})
	if err != nil {
		return nil, internal("unable to update user", err)
	}
	return user, nil
}

func (s *Service) SetUserStatus(ctx context.Context, id int64, active bool) (*domain.User, error) {
	var user *domain.User
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		user, err = s.store.GetUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return apperror.NotFound("user %d not found", id)
		}
		user.Active = active
		return s.store.UpdateUser(ctx, tx, user)
	})
	if err != nil {
		return nil, internal("unable to update user status", err)
	}
	s.logger.Info("user status changed", zap.Int64("user_id", id), zap.Bool("active", active))
	return user, nil
}

// DeleteUser removes the account. Sales made by the user stay and lose their seller.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.store.GetUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return apperror.NotFound("user %d not found", id)
		}
		return s.store.DeleteUser(ctx, tx, id)
	})
	if err != nil {
		return internal("unable to delete user", err)
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return nil
}

// ResetPassword sets a new password, or the configured default when next is empty.
func (s *Service) ResetPassword(ctx context.Context, id int64, next *string) error {
	password := s.opts.DefaultUserPassword
	if next != nil && *next != "" {
		if len(*next) < minPasswordLength {
			return apperror.InvalidInput("new password must be at least %d characters", minPasswordLength)
		}
		password = *next
	}
	if password == "" {
		return apperror.InvalidInput("password is required")
	}
	digest, err := s.passwords.Hash(password)
	if err != nil {
		return internal("unable to reset password", err)
	}
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.store.GetUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return apperror.NotFound("user %d not found", id)
		}
		return s.store.SetPassword(ctx, tx, id, digest)
	})
	if err != nil {
		return internal("unable to reset password", err)
	}
	return nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
