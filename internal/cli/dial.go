package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/nash-io/nashws"
	"github.com/nash-io/nashws/internal/xsync"
)

var dialCmd = &cobra.Command{
	Use:   "dial <url>",
	Short: "Send stdin lines to a WebSocket server and print what it sends back",
	Long: `Dial a WebSocket server, send every line read from stdin as a message
and print every received message on stdout.

When stdin ends, a close frame is sent and the command exits once the
server has closed the connection.

Examples:
  echo hello | nashws dial ws://localhost:8080
  nashws dial --transport gobwas --rate 10 wss://example.com/ws`,
	Args: cobra.ExactArgs(1),
	RunE: runDial,
}

var (
	dialBinary      bool
	dialTransport   string
	dialCloseReason string
	dialRate        float64
	dialBurst       int
)

// closeTimeout bounds the wait for the server to finish the close
// handshake after stdin ended.
const closeTimeout = time.Second * 5

func init() {
	dialCmd.Flags().BoolVar(&dialBinary, "binary", false, "Send lines as binary messages")
	dialCmd.Flags().StringVar(&dialTransport, "transport", "gorilla", "Native transport: gorilla, gobwas or coder (coder discards messages that arrive after our close)")
	dialCmd.Flags().StringVar(&dialCloseReason, "close-reason", "", "Reason sent in the close frame")
	dialCmd.Flags().Float64Var(&dialRate, "rate", 0, "Maximum messages sent per second (0 means unlimited)")
	dialCmd.Flags().IntVar(&dialBurst, "burst", 1, "Messages that may be sent at once when --rate is set")
	rootCmd.AddCommand(dialCmd)
}

// transportFor returns the native transport called name.
func transportFor(name string) (nashws.Transport, error) {
	switch name {
	case "", "gorilla":
		return nashws.GorillaTransport{}, nil
	case "coder":
		return nashws.CoderTransport{}, nil
	case "gobwas":
		return nashws.GobwasTransport{}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (expected gorilla, gobwas or coder)", name)
	}
}

// newLimiter returns a limiter allowing perSecond messages per second.
// A non positive rate is unlimited.
func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 || math.IsInf(perSecond, 1) {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func runDial(cmd *cobra.Command, args []string) error {
	tr, err := transportFor(dialTransport)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log := newLogger(cmd.ErrOrStderr())
	s, r, err := nashws.Dial(ctx, args[0], &nashws.DialOptions{
		Transport: tr,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer s.CloseNow()

	p := newPrinter(cmd.OutOrStdout(), shouldUseColor(cmd.OutOrStdout()))
	recvDone := xsync.Go(func() error {
		return receive(ctx, r, p, log)
	})
	sendDone := xsync.Go(func() error {
		return sendLines(ctx, s, cmd.InOrStdin(), newLimiter(dialRate, dialBurst), dialBinary)
	})

	select {
	case err := <-recvDone:
		return err
	case err := <-sendDone:
		if err != nil {
			return err
		}
	}

	err = s.Close(ctx, dialCloseReason)
	if err != nil && !errors.Is(err, nashws.ErrClosed) {
		log.Warn("close handshake failed", "err", err)
	}

	select {
	case err := <-recvDone:
		return err
	case <-time.After(closeTimeout):
		s.CloseNow()
		return <-recvDone
	}
}

// receive prints messages from r until the stream ends.
func receive(ctx context.Context, r *nashws.Receiver, p *printer, log *slog.Logger) error {
	for {
		m, err := r.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("receive failed", "err", err)
			continue
		}

		err = p.print(m)
		if err != nil {
			return err
		}
	}
}

// sendLines sends every line of in as a message.
func sendLines(ctx context.Context, s *nashws.Sender, in io.Reader, l *rate.Limiter, binary bool) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		err := l.Wait(ctx)
		if err != nil {
			return err
		}

		var m nashws.Message = nashws.Text(sc.Text())
		if binary {
			m = nashws.Binary(append([]byte(nil), sc.Bytes()...))
		}
		err = s.Send(ctx, m)
		if err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	return nil
}
