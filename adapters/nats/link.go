// Package nats connects a device runtime to a NATS server: actors publish
// telemetry through a Publisher, and commands arriving on NATS subjects are
// bridged into local actors.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	natsgo "github.com/nats-io/nats.go"

	"github.com/lulf/drogue-device/internal/codec"
)

var ErrLinkClosed = errors.New("nats: link closed")

type LinkConfig struct {
	Connect       Connector    // Connect is used to create the underlying NATS connection. If nil, ConnectDefault() is used.
	Log           *slog.Logger // Log for diagnostics (optional)
	SubjectPrefix string       // SubjectPrefix for device subjects, e.g. "drogue" -> drogue.<device>.telemetry.<topic>
	DeviceID      string       // DeviceID names this device in every subject
	Codec         codec.Codec  // Codec for telemetry and command payloads. If nil, JSON is used.
}

// Link is one device's connection to NATS.
type Link struct {
	nc      *natsgo.Conn
	closeNc closeFunc
	log     *slog.Logger
	prefix  string
	device  string
	codec   codec.Codec

	mu   sync.Mutex
	subs map[*natsgo.Subscription]struct{}

	closed atomic.Bool
}

// responseFrame answers a command sent as a NATS request. The frame is
// always JSON; Data is encoded with the link codec.
type responseFrame struct {
	Data []byte `json:"data,omitempty"`
	Err  string `json:"err,omitempty"`
}

func NewLink(cfg LinkConfig) (*Link, error) {
	if cfg.DeviceID == "" {
		return nil, errors.New("nats: device id required")
	}

	connFn := cfg.Connect
	if connFn == nil {
		connFn = ConnectDefault()
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	nc, closeNc, err := connFn()
	if err != nil {
		return nil, err
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "drogue"
	}
	cdc := cfg.Codec
	if cdc == nil {
		cdc = codec.JSONCodec{}
	}

	return &Link{
		nc:      nc,
		closeNc: closeNc,
		log:     log.With(slog.String("link", "nats"), slog.String("device", cfg.DeviceID)),
		prefix:  prefix,
		device:  cfg.DeviceID,
		codec:   cdc,
		subs:    make(map[*natsgo.Subscription]struct{}),
	}, nil
}

// TelemetrySubject is the subject telemetry of topic is published on.
func (l *Link) TelemetrySubject(topic string) string {
	return l.prefix + "." + l.device + ".telemetry." + topic
}

// CommandSubject is the subject command is received on.
func (l *Link) CommandSubject(command string) string {
	return l.prefix + "." + l.device + ".command." + command
}

// Publish sends v, JSON encoded, as telemetry of topic.
func (l *Link) Publish(topic string, v any) error {
	if l.closed.Load() {
		return ErrLinkClosed
	}
	payload, err := l.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode telemetry: %w", err)
	}
	if err := l.nc.Publish(l.TelemetrySubject(topic), payload); err != nil {
		return fmt.Errorf("nats: publish: %w", err)
	}
	return nil
}

// Request sends command with payload v to this device and waits for its
// answer. It is how a peer drives the device, and how tests do.
func (l *Link) Request(ctx context.Context, command string, v any) ([]byte, error) {
	if l.closed.Load() {
		return nil, ErrLinkClosed
	}

	payload, err := l.codec.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}

	msg, err := l.nc.RequestWithContext(ctx, l.CommandSubject(command), payload)
	if err != nil {
		return nil, fmt.Errorf("nats: request: %w", err)
	}

	var rf responseFrame
	if err := json.Unmarshal(msg.Data, &rf); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rf.Err != "" {
		return nil, errors.New(rf.Err)
	}
	return rf.Data, nil
}

// subscribe serves command with h until ctx is done or the link closes.
// The answer of h is sent back when the message asks for one.
func (l *Link) subscribe(ctx context.Context, command string, h func(data []byte) (any, error)) (*Subscription, error) {
	if l.closed.Load() {
		return nil, ErrLinkClosed
	}
	subj := l.CommandSubject(command)

	sub, err := l.nc.Subscribe(subj, func(msg *natsgo.Msg) {
		value, err := h(msg.Data)
		if msg.Reply == "" {
			if err != nil {
				l.log.Warn("command failed", slog.String("subject", subj), slog.Any("error", err))
			}
			return
		}

		var rf responseFrame
		if err != nil {
			rf.Err = err.Error()
		} else if value != nil {
			if rf.Data, err = l.codec.Marshal(value); err != nil {
				rf.Err = fmt.Sprintf("encode response: %v", err)
			}
		}
		b, _ := json.Marshal(rf)
		if err := msg.Respond(b); err != nil {
			l.log.Error("failed to publish reply", slog.Any("error", err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats: subscribe %s: %w", subj, err)
	}
	// make sure the server knows about the subscription before returning
	if err := l.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("nats: flush: %w", err)
	}

	l.mu.Lock()
	l.subs[sub] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.forget(sub)
	}()

	l.log.Debug("serving command", slog.String("subject", subj))
	return &Subscription{sub: sub, l: l}, nil
}

func (l *Link) forget(sub *natsgo.Subscription) {
	_ = sub.Unsubscribe()
	l.mu.Lock()
	delete(l.subs, sub)
	l.mu.Unlock()
}

// Close unsubscribes every command and releases the connection.
func (l *Link) Close() error {
	if l.closed.Swap(true) {
		return ErrLinkClosed
	}
	l.mu.Lock()
	for s := range l.subs {
		_ = s.Unsubscribe()
	}
	l.subs = map[*natsgo.Subscription]struct{}{}
	l.mu.Unlock()
	if l.nc != nil {
		// the connection may be shared, so flush instead of draining it
		_ = l.nc.Flush()
		l.closeNc()
	}
	return nil
}

// Subscription is a served command.
type Subscription struct {
	sub *natsgo.Subscription
	l   *Link
}

func (s *Subscription) Unsubscribe() error {
	if s.sub == nil {
		return nil
	}
	err := s.sub.Unsubscribe()
	s.l.mu.Lock()
	delete(s.l.subs, s.sub)
	s.l.mu.Unlock()
	return err
}
