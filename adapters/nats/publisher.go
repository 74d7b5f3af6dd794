package nats

import (
	"log/slog"

	"github.com/lulf/drogue-device/core/actor"
)

type (
	// Publisher is the actor state forwarding telemetry to a Link. Other
	// actors notify it instead of touching the connection themselves.
	Publisher struct {
		link *Link
	}

	// Telemetry is one reading published on Topic.
	Telemetry struct {
		Topic string
		Value any
	}
)

// NewPublisher returns the publisher actor context for link.
func NewPublisher(link *Link) *actor.Context[Publisher] {
	return actor.New("telemetry", Publisher{link: link},
		actor.HandleNotify(func(hc actor.HandlerCtx, p Publisher, t Telemetry) actor.Completion[Publisher] {
			if err := p.link.Publish(t.Topic, t.Value); err != nil {
				hc.Log().Warn("telemetry dropped", slog.String("topic", t.Topic), slog.Any("error", err))
			}
			return actor.Immediate(p)
		}),
	)
}

// MountPublisher mounts a publisher for link and returns its handle.
func MountPublisher(rt *actor.Runtime, link *Link) PublisherHandle {
	return PublisherHandle{addr: NewPublisher(link).Mount(rt)}
}

// PublisherHandle is the address of a mounted publisher.
type PublisherHandle struct {
	addr actor.Address[Publisher]
}

func (h PublisherHandle) Address() actor.Address[Publisher] { return h.addr }

// Publish queues v for topic. It never waits.
func (h PublisherHandle) Publish(topic string, v any) error {
	return actor.Notify(h.addr, Telemetry{Topic: topic, Value: v})
}
