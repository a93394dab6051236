package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/reflecto/internal/mockserver"
)

var (
	flagMockAddr   string
	flagMockScript string
	flagMockWatch  bool
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local mock backend that streams a scripted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		script := mockserver.DefaultScript()
		if flagMockScript != "" {
			loaded, err := mockserver.LoadScript(flagMockScript)
			if err != nil {
				return fmt.Errorf("loading script: %w", err)
			}
			script = loaded
		}

		srv := mockserver.New(script)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if flagMockWatch {
			if flagMockScript == "" {
				return errors.New("--watch requires --script")
			}
			go func() {
				if err := srv.Watch(ctx, flagMockScript); err != nil {
					log.Printf("script watch stopped: %v", err)
				}
			}()
		}

		httpServer := &http.Server{
			Addr:    flagMockAddr,
			Handler: srv.Routes(),
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		log.Printf("mock backend listening on %s", flagMockAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	mockCmd.Flags().StringVar(&flagMockAddr, "addr", ":8000", "listen address")
	mockCmd.Flags().StringVar(&flagMockScript, "script", "", "JSON event script to stream (default: built-in session)")
	mockCmd.Flags().BoolVar(&flagMockWatch, "watch", false, "reload the script when the file changes")
	rootCmd.AddCommand(mockCmd)
}
