package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moku180/legalaichatbot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the legalai HTTP server",
	Long:  `Starts the HTTP API: document upload and status, chat queries, and query history, all scoped to the calling organization.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents(cmd.Context())
		if err != nil {
			return err
		}
		defer comps.Close()

		srv := server.New(comps.cfg, server.Deps{
			Documents: comps.documents,
			Processor: comps.processor,
			History:   comps.history,
			Pipeline:  comps.pipeline,
		})

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-stop:
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
