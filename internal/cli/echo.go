package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
)

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Run a local WebSocket echo server",
	Long: `Run a WebSocket server that sends every message it receives back to
the client. Useful for trying out dial.

Examples:
  nashws echo --addr localhost:8080
  nashws echo --origin "*.example.com"`,
	Args: cobra.NoArgs,
	RunE: runEcho,
}

var (
	echoAddr    string
	echoOrigins []string
)

func init() {
	echoCmd.Flags().StringVar(&echoAddr, "addr", "localhost:8080", "Address to listen on")
	echoCmd.Flags().StringSliceVar(&echoOrigins, "origin", nil, "Additional allowed origin host patterns")
	rootCmd.AddCommand(echoCmd)
}

func runEcho(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	l, err := net.Listen("tcp", echoAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "listening on ws://%v\n", l.Addr())

	s := &http.Server{
		Handler:     echoHandler(newLogger(cmd.ErrOrStderr()), echoOrigins),
		ReadTimeout: time.Second * 10,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		s.Shutdown(shutdownCtx)
	}()

	err = s.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// echoHandler accepts WebSocket connections and echoes every message
// until the client closes the connection.
func echoHandler(log *slog.Logger, origins []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: origins,
		})
		if err != nil {
			log.Warn("failed to accept", "remote", r.RemoteAddr, "err", err)
			return
		}
		defer c.CloseNow()

		log := log.With("remote", r.RemoteAddr)
		log.Debug("connection accepted")

		err = echo(r.Context(), c)
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			log.Debug("connection closed")
			return
		}
		log.Warn("echo failed", "err", err)
	})
}

func echo(ctx context.Context, c *websocket.Conn) error {
	for {
		typ, p, err := c.Read(ctx)
		if err != nil {
			return err
		}

		err = c.Write(ctx, typ, p)
		if err != nil {
			return err
		}
	}
}
