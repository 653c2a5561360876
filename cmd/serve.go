package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/contact-harvester/internal/api"
	"github.com/JakeFAU/contact-harvester/internal/config"
	"github.com/JakeFAU/contact-harvester/internal/match"
	"github.com/JakeFAU/contact-harvester/internal/storage"
)

// newServeCmd creates the 'serve' subcommand, which runs the matching API until the
// command context is canceled.
func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the company matching API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.GetConfig()
			if port > 0 {
				cfg.Server.Port = port
			}
			logger := appInstance.GetLogger()

			// The in-memory store starts empty; seed it from the last merge.
			if cfg.Index.Backend == config.BackendMemory {
				stats, err := loadProfiles(cmd.Context(), appInstance)
				switch {
				case errors.Is(err, storage.ErrNotFound):
					logger.Warn("no merged profiles found; serving an empty index")
				case err != nil:
					return err
				default:
					logger.Info("in-memory index seeded", zap.Int("profiles", stats.Indexed))
				}
			}

			lis, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(cfg.Server.Port)))
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			service := match.NewService(appInstance.GetProfiles(), logger.Named("match"))
			server := api.NewServer(service, appInstance.Ready, cfg, logger.Named("api"))
			return serve(cmd.Context(), lis, server.Handler(), cfg.Server.ShutdownTimeout, logger)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default server.port)")
	return cmd
}

// serve runs handler on lis until ctx is canceled, then shuts down gracefully.
func serve(ctx context.Context, lis net.Listener, handler http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server started", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("shutdown complete")
		return nil
	})
	return g.Wait()
}
