package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/arbor/internal/presentation/tui"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves action links (GET /a.<token>), the trigger API and the link helpers over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		reload, _ := cmd.Flags().GetBool("reload-on-hup")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		handler := httpAdapter.NewHandler(a.engine,
			httpAdapter.WithCodec(a.codec),
			httpAdapter.WithLogger(a.logger),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{})),
		)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		out := cmd.OutOrStdout()
		tui.PrintBanner(out)

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Fprintf(out, "Starting Arbor Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		hup := make(chan os.Signal, 1)
		if reload {
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
		}

		for {
			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case <-hup:
				if err := a.loader.Reload(); err != nil {
					a.logger.Error("reload failed, keeping previous trees", "err", err)
					continue
				}
				a.logger.Info("trees reloaded")

			case sig := <-shutdown:
				fmt.Fprintf(out, "\nStart shutdown... Signal: %v\n", sig)

				// Give outstanding requests a deadline for completion.
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					fmt.Fprintf(out, "Graceful shutdown did not complete in %v: %v\n", shutdownTimeout, err)
					if err := srv.Close(); err != nil {
						return fmt.Errorf("error killing server: %w", err)
					}
				}
				fmt.Fprintln(out, "Arbor Server stopped gracefully")
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("reload-on-hup", true, "Reload the tree configuration on SIGHUP")
}
