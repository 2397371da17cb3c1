package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/s21platform/chat-sync/internal/config"
	"github.com/s21platform/chat-sync/internal/conversation"
	"github.com/s21platform/chat-sync/internal/metrics"
	"github.com/s21platform/chat-sync/internal/reconcile"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxBackoff   = 30 * time.Second

	pushBuffer = 16
)

var ErrStarted = errors.New("session already started")

type Options struct {
	PollInterval time.Duration
	MaxBackoff   time.Duration
}

type fetchResult struct {
	seq      uint64
	messages []conversation.Message
	err      error
}

type openResult struct {
	sub Subscription
	err error
}

// pollState is owned by the loop goroutine.
type pollState struct {
	seq         uint64
	lastApplied uint64
	inFlight    int
	failures    int
}

// Session keeps one conversation in sync. It owns the poll timer and the
// realtime subscription; all reconciliation happens on its loop goroutine.
type Session struct {
	meID       string
	otherID    string
	transport  Transport
	subscriber Subscriber
	engine     Reconciler
	opts       Options
	random     func() float64

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	workers  sync.WaitGroup
	realtime atomic.Bool
	refetch  chan struct{}
	pushes   chan conversation.Message
	opened   chan openResult
	results  chan fetchResult
}

// New builds a session between meID and otherID. subscriber may be nil,
// in which case the session only polls.
func New(meID, otherID string, transport Transport, subscriber Subscriber, engine Reconciler, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}

	return &Session{
		meID:       meID,
		otherID:    otherID,
		transport:  transport,
		subscriber: subscriber,
		engine:     engine,
		opts:       opts,
		random:     jitter,
		done:       make(chan struct{}),
		refetch:    make(chan struct{}, 1),
		pushes:     make(chan conversation.Message, pushBuffer),
		opened:     make(chan openResult),
		results:    make(chan fetchResult),
	}
}

// Start issues the initial fetch, starts polling and, when a subscriber is
// configured, tries to open the realtime subscription. If that first attempt
// fails the session polls only. A subscription that was established and later
// ends (token expiry, dropped connection) is reopened with backoff.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}
	s.started = true

	logger := logger_lib.FromContext(ctx, config.KeyLogger)
	logger.AddFuncName("Start")

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.subscriber != nil {
		s.subscribe(loopCtx)
	} else {
		logger.Info("realtime is not configured, polling only")
	}

	go s.run(loopCtx, logger)

	return nil
}

// Stop cancels polling and in-flight requests, closes the subscription and
// waits for the loop to exit. Calling Stop more than once is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.done
}

// Send submits content and schedules a fresh snapshot on success.
func (s *Session) Send(ctx context.Context, content string) error {
	if err := s.transport.SendMessage(ctx, s.otherID, content); err != nil {
		if !errors.Is(err, conversation.ErrEmptyContent) {
			metrics.TransportFailures.WithLabelValues("send").Inc()
		}
		return err
	}

	select {
	case s.refetch <- struct{}{}:
	default:
	}

	return nil
}

// RealtimeEnabled reports whether pushes are currently being received.
func (s *Session) RealtimeEnabled() bool {
	return s.realtime.Load()
}

func (s *Session) subscribe(ctx context.Context) {
	s.workers.Add(1)
	go s.open(ctx)
}

func (s *Session) open(ctx context.Context) {
	defer s.workers.Done()

	sub, err := s.subscriber.Subscribe(ctx, s.meID, s.otherID, func(msg conversation.Message) {
		select {
		case s.pushes <- msg:
		case <-ctx.Done():
		}
	})

	select {
	case s.opened <- openResult{sub: sub, err: err}:
	case <-ctx.Done():
		if err == nil {
			sub.Unsubscribe()
		}
	}
}

func (s *Session) run(ctx context.Context, logger logger_lib.LoggerInterface) {
	var (
		state         pollState
		sub           Subscription
		subDone       <-chan struct{}
		resubscribe   <-chan time.Time
		capable       bool
		resubAttempts int
	)

	defer func() {
		if sub != nil {
			sub.Unsubscribe()
		}
		s.setRealtime(false)
		s.workers.Wait()
		close(s.done)
	}()

	fetch := func() {
		state.seq++
		state.inFlight++
		s.workers.Add(1)
		go s.fetch(ctx, state.seq)
	}

	fetch()

	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-timer.C:
			if state.inFlight == 0 {
				fetch()
			}
			timer.Reset(pollDelay(s.opts.PollInterval, s.opts.MaxBackoff, state.failures, s.random))

		case <-s.refetch:
			fetch()

		case res := <-s.results:
			s.handleResult(&state, res, logger)

		case msg := <-s.pushes:
			if s.engine.ApplyPush(msg) {
				metrics.PushesApplied.Inc()
			} else {
				metrics.PushesDuplicate.Inc()
			}

		case res := <-s.opened:
			if res.err != nil {
				if !capable {
					logger.Warn(fmt.Sprintf("realtime unavailable, polling only: %v", res.err))
					continue
				}
				resubAttempts++
				logger.Warn(fmt.Sprintf("failed to reopen realtime subscription: %v", res.err))
				resubscribe = time.After(pollDelay(s.opts.PollInterval, s.opts.MaxBackoff, resubAttempts, s.random))
				continue
			}
			capable = true
			resubAttempts = 0
			sub = res.sub
			subDone = sub.Done()
			s.setRealtime(true)
			logger.Info("realtime subscription established")

		case <-subDone:
			subDone = nil
			sub = nil
			s.setRealtime(false)
			logger.Warn("realtime subscription ended, reopening")
			resubscribe = time.After(pollDelay(s.opts.PollInterval, s.opts.MaxBackoff, resubAttempts, s.random))

		case <-resubscribe:
			resubscribe = nil
			s.subscribe(ctx)
		}
	}
}

// handleResult applies a fetch completion. Completions older than the last
// applied snapshot are dropped before they can count as failures.
func (s *Session) handleResult(state *pollState, res fetchResult, logger logger_lib.LoggerInterface) {
	state.inFlight--

	if res.seq <= state.lastApplied {
		metrics.SnapshotsDiscarded.WithLabelValues("stale").Inc()
		return
	}

	if res.err != nil {
		state.failures++
		metrics.TransportFailures.WithLabelValues("fetch").Inc()
		logger.Warn(fmt.Sprintf("failed to fetch conversation: %v", res.err))
		return
	}
	state.failures = 0
	state.lastApplied = res.seq

	switch outcome := s.engine.ApplySnapshot(res.messages); outcome {
	case reconcile.Applied:
		metrics.SnapshotsApplied.Inc()
	default:
		metrics.SnapshotsDiscarded.WithLabelValues(outcome.String()).Inc()
	}
}

func (s *Session) fetch(ctx context.Context, seq uint64) {
	defer s.workers.Done()

	messages, err := s.transport.FetchConversation(ctx, s.otherID)

	select {
	case s.results <- fetchResult{seq: seq, messages: messages, err: err}:
	case <-ctx.Done():
	}
}

func (s *Session) setRealtime(enabled bool) {
	s.realtime.Store(enabled)
	if enabled {
		metrics.RealtimeEnabled.Set(1)
	} else {
		metrics.RealtimeEnabled.Set(0)
	}
}
