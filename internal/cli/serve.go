package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

// serveCommand creates the serve command: a static file server for a
// generated channel, so conda clients can install from
// http://host:port/<channel> without extra hosting.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [channel-dir]",
		Short: "Serve a generated channel over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.Config.Channel
			if len(args) == 1 {
				dir = args[0]
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return errors.New("channel directory " + dir + " does not exist; run generate first")
			}

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)
			r.Handle("/*", http.FileServer(http.Dir(dir)))

			srv := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx := cmd.Context()
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			printInfo("Serving %s on http://localhost%s", dir, addr)
			printDetail("conda install -c http://localhost%s <package>", addr)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}
