// Package seed populates a fresh database: bootstrap administrator accounts
// and an optional medicine catalog.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"pharmacy/m/domain"
	"pharmacy/m/internal/auth"
	"pharmacy/m/internal/config"
	"pharmacy/m/internal/store"
)

// ReconcileAdmins makes sure every configured bootstrap account exists, is
// active and holds its configured role. Missing accounts are created with
// defaultPassword. Running it again changes nothing.
func ReconcileAdmins(ctx context.Context, st *store.Store, hasher auth.PasswordHasher, accounts []config.AdminAccount, defaultPassword string, logger *zap.Logger) error {
	for _, account := range accounts {
		if !account.Role.Valid() {
			return fmt.Errorf("bootstrap account %s: unknown role %q", account.Username, account.Role)
		}
		err := st.WithTx(ctx, func(tx *sqlx.Tx) error {
			user, err := st.GetUserByUsername(ctx, tx, account.Username)
			if err != nil {
				return err
			}
			if user == nil {
				digest, err := hasher.Hash(defaultPassword)
				if err != nil {
					return err
				}
				user = &domain.User{
					Username:     account.Username,
					Name:         account.Username,
					Role:         account.Role,
					PasswordHash: digest,
					Active:       true,
					CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
				}
				if account.Email != "" {
					email := account.Email
					user.Email = &email
				}
				if err := st.InsertUser(ctx, tx, user); err != nil {
					return err
				}
				logger.Info("bootstrap account created",
					zap.String("username", user.Username), zap.String("role", string(user.Role)))
				return nil
			}
			if user.Role == account.Role && user.Active {
				return nil
			}
			user.Role, user.Active = account.Role, true
			if err := st.UpdateUser(ctx, tx, user); err != nil {
				return err
			}
			logger.Info("bootstrap account restored",
				zap.String("username", user.Username), zap.String("role", string(user.Role)))
			return nil
		})
		if err != nil {
			return fmt.Errorf("reconcile account %s: %w", account.Username, err)
		}
	}
	return nil
}
