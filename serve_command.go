package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/krau/tagpipe/server"
	"github.com/krau/tagpipe/service"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tagger over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, err := ctx.loadPipeline()
			if err != nil {
				return err
			}
			pool, release, err := ctx.openModel(cfg, p, cfg.Batch.Workers)
			if err != nil {
				return err
			}
			defer release()

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr:    cfg.Addr(),
				Handler: server.New(service.NewTagger(pool, p), cfg.Server.Token, ctx.logger).Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				ctx.logger.Info("Listening on", slog.String("address", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}
			ctx.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
