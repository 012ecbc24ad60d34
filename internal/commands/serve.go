package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmacy/m/internal/api"
	"pharmacy/m/internal/auth"
	"pharmacy/m/internal/seed"
	"pharmacy/m/internal/service"
	"pharmacy/m/internal/store"
)

const shutdownTimeout = 10 * time.Second

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Migrate the database, reconcile bootstrap accounts, optionally load the
CATALOG_CSV medicine catalog, then serve the API until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	st := store.New(rt.db)
	passwords := auth.NewPasswords(bcrypt.DefaultCost)
	if err := seed.ReconcileAdmins(ctx, st, passwords, rt.cfg.Accounts.BootstrapAdmins,
		rt.cfg.Accounts.DefaultAdminPassword, rt.logger); err != nil {
		return err
	}
	if rt.cfg.CatalogCSV != "" {
		if _, err := seed.LoadMedicines(ctx, st, rt.cfg.CatalogCSV, rt.logger); err != nil {
			rt.logger.Warn("medicine catalog not loaded", zap.Error(err))
		}
	}

	svc := service.New(st, passwords, rt.logger, service.Options{
		DefaultUserPassword: rt.cfg.Accounts.DefaultUserPassword,
	})
	tokens := auth.NewTokens(rt.cfg.Secret, rt.cfg.TokenTTL)
	router, err := api.New(svc, tokens, rt.logger, api.Options{
		AllowedOrigins: rt.cfg.AllowedOrigins,
		LoginRate:      rt.cfg.LoginRate,
	}).Router()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + rt.cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("pharmacy server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
