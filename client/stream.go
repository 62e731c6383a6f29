package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/ogeth777/baseworld/events"
	"github.com/ogeth777/baseworld/internal/logging"
)

// Handler receives the events of the push channel.
type Handler interface {
	Handle(ev events.Event) error
}

// Stream keeps a websocket connection to the push channel open, reconnecting
// with an exponential delay when it drops. Every connection starts with the
// full state so nothing is lost between two connections.
type Stream struct {
	log     *logging.Logger
	cfg     Config
	url     string
	handler Handler
	dialer  *websocket.Dialer

	// OnConnect is called each time a connection is established.
	OnConnect func()
}

func NewStream(log *logging.Logger, cfg Config, url string, handler Handler) *Stream {
	log = log.Named(namedLogger).Named("stream")
	log.SetLevel(cfg.Level.Get())
	return &Stream{
		log:     log,
		cfg:     cfg,
		url:     url,
		handler: handler,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.RequestTimeout.Get(),
		},
	}
}

// Run returns when ctx is done.
func (s *Stream) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = s.cfg.ReconnectMax.Get()
	bo.MaxElapsedTime = 0

	for {
		err := s.session(ctx, bo)
		if ctx.Err() != nil {
			return nil
		}
		wait := bo.NextBackOff()
		s.log.Warn("push channel lost, reconnecting",
			logging.Error(err),
			logging.Duration("in", wait))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (s *Stream) session(ctx context.Context, bo *backoff.ExponentialBackOff) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	bo.Reset()
	s.log.Info("push channel connected", logging.String("url", s.url))
	if s.OnConnect != nil {
		s.OnConnect()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		ev := events.Event{}
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errors.New("connection closed by the server")
			}
			return err
		}
		if err := s.handler.Handle(ev); err != nil {
			s.log.Warn("invalid event", logging.String("event", ev.Type.String()), logging.Error(err))
		}
	}
}
