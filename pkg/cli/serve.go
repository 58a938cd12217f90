package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/cli/config"
	httpctrl "github.com/secmon-lab/oprisk/pkg/controller/http"
	"github.com/secmon-lab/oprisk/pkg/service/authz"
	"github.com/secmon-lab/oprisk/pkg/usecase"
	"github.com/secmon-lab/oprisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func cmdServe() *cli.Command {
	var addr string
	var enableMetrics bool
	var appCfg config.App
	var repoCfg config.Repository
	var archiveCfg config.Archive

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("OPRISK_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose prometheus metrics at /metrics",
			Value:       true,
			Sources:     cli.EnvVars("OPRISK_METRICS"),
			Destination: &enableMetrics,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, archiveCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}
			if len(cfg.Users) == 0 {
				logging.Default().Warn("No users configured, every request will be rejected")
			}

			draftPolicy, approvePolicy, err := cfg.ScoringPolicies()
			if err != nil {
				return goerr.Wrap(err, "failed to build scoring policies")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			authorizer := authz.NewStatic(cfg.ToAuthzUsers())
			ucOpts := []usecase.Option{
				usecase.WithAuthorizer(authorizer),
				usecase.WithScoringPolicies(draftPolicy, approvePolicy),
			}

			archiver, err := archiveCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if archiver != nil {
				defer func() {
					if err := archiver.Close(); err != nil {
						logging.Default().Error("failed to close archive client", "error", err.Error())
					}
				}()
				ucOpts = append(ucOpts, usecase.WithArchiver(archiver))
			}

			uc := usecase.New(repo, ucOpts...)

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, authorizer, httpctrl.WithMetrics(enableMetrics)),
				ReadHeaderTimeout: 30 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr, "backend", repoCfg.Backend())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})
			eg.Go(func() error {
				<-egCtx.Done()
				logging.Default().Info("Shutting down HTTP server")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				logging.Default().Info("Server shutdown completed")
				return nil
			})

			return eg.Wait()
		},
	}
}
