package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/s21platform/chat-sync/internal/config"
	"github.com/s21platform/chat-sync/internal/conversation"
	"github.com/s21platform/chat-sync/internal/realtime"
	"github.com/s21platform/chat-sync/internal/reconcile"
	"github.com/s21platform/chat-sync/internal/render"
	"github.com/s21platform/chat-sync/internal/session"
)

const (
	serviceName     = "chat-sync-client"
	shutdownTimeout = 5 * time.Second
)

var errInputClosed = errors.New("input closed")

func main() {
	cfg := config.MustLoadClient()

	flagSet := pflag.NewFlagSet("chat", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Chat.BaseURL, "base-url", cfg.Chat.BaseURL, "conversation service base URL")
	flagSet.StringVar(&cfg.Chat.MeID, "me", cfg.Chat.MeID, "your participant id")
	flagSet.DurationVar(&cfg.Chat.PollInterval, "poll-interval", cfg.Chat.PollInterval, "conversation poll interval")
	flagSet.DurationVar(&cfg.Chat.MaxBackoff, "max-backoff", cfg.Chat.MaxBackoff, "upper bound for the poll delay after failures")
	flagSet.DurationVar(&cfg.Chat.RequestTimeout, "request-timeout", cfg.Chat.RequestTimeout, "timeout for each conversation request")
	flagSet.StringVar(&cfg.Realtime.URL, "realtime-url", cfg.Realtime.URL, "realtime websocket endpoint (optional)")
	flagSet.StringVar(&cfg.Realtime.Key, "realtime-key", cfg.Realtime.Key, "realtime connect key (optional)")
	flagSet.StringVar(&cfg.Chat.MetricsAddr, "metrics-addr", cfg.Chat.MetricsAddr, "serve Prometheus metrics on this address (optional)")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: chat [flags] <other-id>\n\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("failed to parse flags: %v", err)
	}

	args := flagSet.Args()
	if len(args) != 1 {
		flagSet.Usage()
		os.Exit(2)
	}
	otherID := args[0]

	if cfg.Chat.MeID == "" {
		log.Fatalf("participant id is required: set CHAT_ME_ID or --me")
	}

	logger := logger_lib.New(cfg.Logger.Host, cfg.Logger.Port, serviceName, cfg.Platform.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = context.WithValue(ctx, config.KeyLogger, logger)

	transport := conversation.New(cfg.Chat.BaseURL, cfg.Chat.MeID, cfg.Chat.RequestTimeout)
	defer transport.Close()

	var subscriber session.Subscriber
	if cfg.Realtime.Enabled() {
		rt := realtime.New(cfg.Realtime.URL, connectToken(transport, cfg.Realtime.Key, logger), func(ctx context.Context, otherID string) (string, error) {
			token, _, err := transport.SubscribeToken(ctx, otherID)
			return token, err
		})
		subscriber = session.SubscriberFunc(func(ctx context.Context, meID, otherID string, onMessage func(conversation.Message)) (session.Subscription, error) {
			sub, err := rt.Subscribe(ctx, meID, otherID, onMessage)
			if err != nil {
				return nil, err
			}
			return sub, nil
		})
	}

	sink := render.NewTerminal(os.Stdout, cfg.Chat.MeID, terminalWidth())
	engine := reconcile.New(sink)

	chat := session.New(cfg.Chat.MeID, otherID, transport, subscriber, engine, session.Options{
		PollInterval: cfg.Chat.PollInterval,
		MaxBackoff:   cfg.Chat.MaxBackoff,
	})
	if err := chat.Start(ctx); err != nil {
		logger.Error(fmt.Sprintf("failed to start session: %v", err))
		return
	}
	defer chat.Stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Chat.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              cfg.Chat.MetricsAddr,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server error: %v", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return readInput(gctx, os.Stdin, chat)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errInputClosed) {
		logger.Error(fmt.Sprintf("chat error: %v", err))
	}
}

// readInput sends every entered line until ctx is done or input ends.
func readInput(ctx context.Context, in io.Reader, chat *session.Session) error {
	logger := logger_lib.FromContext(ctx, config.KeyLogger)
	logger.AddFuncName("readInput")

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return errInputClosed
		case line := <-lines:
			if err := chat.Send(ctx, line); err != nil {
				if errors.Is(err, conversation.ErrEmptyContent) {
					continue
				}
				logger.Warn(fmt.Sprintf("failed to send message: %v", err))
			}
		}
	}
}

// connectToken asks the service for a fresh connect token on every
// (re)subscription and falls back to the configured key when it cannot.
func connectToken(transport *conversation.Client, key string, logger logger_lib.LoggerInterface) realtime.ConnectTokenSource {
	static := realtime.StaticToken(key)
	return func(ctx context.Context) (string, error) {
		token, err := transport.ConnectToken(ctx)
		if err != nil {
			logger.Warn(fmt.Sprintf("failed to get connect token, using configured key: %v", err))
			return static(ctx)
		}
		return token, nil
	}
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return render.DefaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return render.DefaultWidth
	}
	return width
}
