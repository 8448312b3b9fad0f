package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/motorskill/internal/api/http"
	auth "github.com/mind-engage/motorskill/internal/auth/middleware"
	"github.com/mind-engage/motorskill/internal/config"
	"github.com/mind-engage/motorskill/internal/rbac"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			a, err := openApp(openCtx, cfg, logger)
			cancel()
			if err != nil {
				return err
			}
			defer a.Close()

			if cfg.AdminPassHash != "" {
				if err := a.users.EnsureHash(ctx, cfg.AdminUser, cfg.AdminPassHash, rbac.RoleAdmin); err != nil {
					return err
				}
			} else {
				logger.Warn("admin_pass_hash not set; add users with `motorskill user add`")
			}

			h := api.NewRouter(api.Deps{
				Store:              a.store,
				Builder:            a.builder,
				Norms:              a.norms,
				Users:              a.users,
				Events:             a.events,
				Blobs:              a.blobs,
				Auth:               auth.NewAuthService(cfg.AuthHMACSecret),
				Log:                logger.Named("http"),
				CORSOrigins:        cfg.CORSOrigins,
				AllowClaimFallback: cfg.Mode == config.ModeOffline,
				Ready:              a.db.PingContext,
			})
			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           h,
				ReadHeaderTimeout: 5 * time.Second,
			}

			logger.Info("listening",
				zap.String("addr", cfg.HTTPAddr),
				zap.String("mode", string(cfg.Mode)),
				zap.String("db", cfg.DBDriver),
				zap.String("protocol", a.protocol.Name))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")
				shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().String("http-addr", ":8080", "listen address")
	_ = v.BindPFlag("http_addr", cmd.Flags().Lookup("http-addr"))
	return cmd
}
