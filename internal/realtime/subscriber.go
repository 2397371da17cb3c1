package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/s21platform/chat-sync/internal/config"
	"github.com/s21platform/chat-sync/internal/conversation"
	"github.com/s21platform/chat-sync/internal/model"
)

const (
	connectCommandID   = 1
	subscribeCommandID = 2

	clientName = "chat-sync"

	handshakeTimeout = 10 * time.Second
	pingMargin       = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

var pongFrame = []byte("{}")

// ConnectTokenSource issues the token sent with the connect command.
type ConnectTokenSource func(ctx context.Context) (string, error)

// TokenSource issues a subscription token for the conversation with otherID.
type TokenSource func(ctx context.Context, otherID string) (string, error)

// StaticToken always connects with key.
func StaticToken(key string) ConnectTokenSource {
	return func(context.Context) (string, error) {
		return key, nil
	}
}

// Subscriber opens conversation subscriptions on a Centrifugo websocket endpoint.
// Tokens are requested on every Subscribe, so a subscription reopened after
// expiry carries fresh credentials.
type Subscriber struct {
	url          string
	connectToken ConnectTokenSource
	channelToken TokenSource
	dialer       *websocket.Dialer
}

// New returns a subscriber for url. A nil channelToken subscribes without a
// channel token.
func New(url string, connectToken ConnectTokenSource, channelToken TokenSource) *Subscriber {
	return &Subscriber{
		url:          url,
		connectToken: connectToken,
		channelToken: channelToken,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// Subscribe connects and subscribes to the channel of the meID/otherID pair.
// onMessage runs on the subscription's reader goroutine once per publication
// that decodes to a message of the pair.
func (s *Subscriber) Subscribe(ctx context.Context, meID, otherID string, onMessage func(conversation.Message)) (*Subscription, error) {
	logger := logger_lib.FromContext(ctx, config.KeyLogger)
	logger.AddFuncName("Subscribe")

	var key string
	if s.connectToken != nil {
		var err error
		key, err = s.connectToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get connect token: %w", err)
		}
	}

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial realtime endpoint: %w", err)
	}

	sub := &Subscription{
		conn:      conn,
		channel:   model.ConversationChannel(meID, otherID),
		meID:      meID,
		otherID:   otherID,
		onMessage: onMessage,
		logger:    logger,
		done:      make(chan struct{}),
	}

	// The handshake blocks on reads; closing the socket unblocks it on cancel.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	err = sub.handshake(ctx, key, s.channelToken)
	if !stop() {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime handshake canceled: %w", ctx.Err())
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Info(fmt.Sprintf("subscribed to %s", sub.channel))

	go sub.readLoop()

	return sub, nil
}

// Subscription is a live channel subscription. It ends when Unsubscribe is
// called or the connection drops.
type Subscription struct {
	conn      *websocket.Conn
	channel   string
	meID      string
	otherID   string
	onMessage func(conversation.Message)
	logger    logger_lib.LoggerInterface

	pong        bool
	pingTimeout time.Duration

	writeMu sync.Mutex
	closing atomic.Bool
	once    sync.Once
	done    chan struct{}
	err     error
}

func (s *Subscription) Channel() string {
	return s.channel
}

// Done is closed once the subscription has ended.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the reason a dropped subscription ended. It is nil after
// Unsubscribe and only valid once Done is closed.
func (s *Subscription) Err() error {
	return s.err
}

// Unsubscribe closes the connection and waits for the reader to exit. Safe
// to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.closing.Store(true)

		s.writeMu.Lock()
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout),
		)
		s.writeMu.Unlock()

		_ = s.conn.Close()
	})
	<-s.done
}

func (s *Subscription) handshake(ctx context.Context, key string, tokenSource TokenSource) error {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetReadDeadline(deadline)

	err := s.writeCommand(command{
		ID:      connectCommandID,
		Connect: &connectRequest{Token: key, Name: clientName},
	})
	if err != nil {
		return fmt.Errorf("failed to send connect: %w", err)
	}

	connected, err := s.awaitReply(connectCommandID)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if connected.Connect != nil {
		s.pong = connected.Connect.Pong
		if connected.Connect.Ping > 0 {
			s.pingTimeout = time.Duration(connected.Connect.Ping)*time.Second + pingMargin
		}
	}

	var token string
	if tokenSource != nil {
		token, err = tokenSource(ctx, s.otherID)
		if err != nil {
			return fmt.Errorf("failed to get subscribe token: %w", err)
		}
	}

	err = s.writeCommand(command{
		ID:        subscribeCommandID,
		Subscribe: &subscribeRequest{Channel: s.channel, Token: token},
	})
	if err != nil {
		return fmt.Errorf("failed to send subscribe: %w", err)
	}

	if _, err := s.awaitReply(subscribeCommandID); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}

	s.resetReadDeadline()

	return nil
}

// awaitReply reads frames until the reply to id arrives, answering pings
// on the way.
func (s *Subscription) awaitReply(id uint32) (*reply, error) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}

		for _, frame := range splitFrames(data) {
			var r reply
			if err := json.Unmarshal(frame, &r); err != nil {
				return nil, fmt.Errorf("failed to decode reply: %w", err)
			}
			if r.isPing() {
				s.answerPing()
				continue
			}
			if r.ID != id {
				continue
			}
			if r.Error != nil {
				return nil, fmt.Errorf("centrifugo error %d: %s", r.Error.Code, r.Error.Message)
			}
			return &r, nil
		}
	}
}

func (s *Subscription) readLoop() {
	defer close(s.done)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closing.Load() {
				s.err = err
				s.logger.Warn(fmt.Sprintf("realtime connection to %s lost: %v", s.channel, err))
				_ = s.conn.Close()
			}
			return
		}
		s.resetReadDeadline()

		for _, frame := range splitFrames(data) {
			var r reply
			if err := json.Unmarshal(frame, &r); err != nil {
				s.logger.Warn(fmt.Sprintf("failed to decode realtime frame: %v", err))
				continue
			}

			switch {
			case r.isPing():
				s.answerPing()
			case r.Push != nil:
				s.handlePush(r.Push)
			}
		}
	}
}

func (s *Subscription) handlePush(p *push) {
	if p.Channel != s.channel || p.Pub == nil {
		return
	}

	var msg conversation.Message
	if err := json.Unmarshal(p.Pub.Data, &msg); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to decode publication: %v", err))
		return
	}

	if err := msg.Validate(s.meID, s.otherID); err != nil {
		s.logger.Warn(fmt.Sprintf("dropping publication: %v", err))
		return
	}

	s.onMessage(msg)
}

func (s *Subscription) answerPing() {
	if !s.pong {
		return
	}
	if err := s.write(pongFrame); err != nil && !s.closing.Load() {
		s.logger.Warn(fmt.Sprintf("failed to answer ping: %v", err))
	}
}

func (s *Subscription) resetReadDeadline() {
	if s.pingTimeout == 0 {
		_ = s.conn.SetReadDeadline(time.Time{})
		return
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(s.pingTimeout))
}

func (s *Subscription) writeCommand(cmd command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}
	return s.write(data)
}

func (s *Subscription) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// splitFrames splits a websocket message into newline-delimited replies.
func splitFrames(data []byte) [][]byte {
	var frames [][]byte
	for _, frame := range bytes.Split(data, []byte("\n")) {
		frame = bytes.TrimSpace(frame)
		if len(frame) > 0 {
			frames = append(frames, frame)
		}
	}
	return frames
}
