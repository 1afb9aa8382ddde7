package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"img2pdf/api"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP conversion service",
		Long: `Starts an HTTP service holding one image collection.

  POST   /api/images     add multipart "images" files and/or "image_urls" (JSON list)
  GET    /api/images     list the collection
  DELETE /api/images     clear the collection
  GET    /preview/{id}   PNG thumbnail of a collected image
  POST   /api/convert    download converted.pdf and clear the collection`,
		Example: `  # Start on the configured address (default :8080)
  img2pdf serve

  # Start on a custom address
  img2pdf serve --addr 127.0.0.1:3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = opts.cfg.Serve.Addr
			}

			handler := api.New(api.Options{
				MaxMemory:      opts.cfg.Serve.MaxUploadMemory,
				PreviewMaxEdge: opts.cfg.Preview.MaxEdge,
				Client:         &http.Client{Timeout: opts.cfg.Fetch.Timeout},
			})
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("could not listen on %s: %w", addr, err)
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("img2pdf service available", "addr", ln.Addr().String())
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "error", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")

	return cmd
}
