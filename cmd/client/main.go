package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/astromechza/ordered-todos/pkg/client"
	"github.com/astromechza/ordered-todos/pkg/logging"
	"github.com/astromechza/ordered-todos/pkg/render"
)

const defaultAddr = "http://localhost:8080"

var (
	serverAddr string
	output     string
	timeout    time.Duration
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "todos",
	Short: "Manage an ordered todo list held by a todos server",
	Long: `todos talks to a todos server over HTTP. Items are shown in list order and can be
referred to by their position in the list, their id, or a unique id prefix.

Examples:
  todos add "buy milk"
  todos move 3 1
  todos done 1 2
  todos tui`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger, err := logging.New(os.Stderr, level, "text", "")
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	addr := os.Getenv("TODOS_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "addr", "a", addr, "server address (env TODOS_ADDR)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", render.FormatTable, "output format: table, json or yaml")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

// baseURL accepts a bare host:port the same way the server's -addr flag does.
func baseURL(addr string) string {
	if !strings.Contains(addr, "://") {
		return "http://" + addr
	}
	return addr
}

func newClient() (*client.Client, error) {
	c, err := client.New(baseURL(serverAddr), &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to build client: %w", err)
	}
	return c, nil
}

// getSession returns a session loaded with the server's current list.
func getSession(ctx context.Context) (*client.Session, error) {
	c, err := newClient()
	if err != nil {
		return nil, err
	}
	s := client.NewSession(c)
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
