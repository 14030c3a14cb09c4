package simulation

import (
	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
)

// Message is a positional broadcast: it reaches every agent within Range of
// Origin while it is still valid. ExpiresAt is simulation time in seconds;
// zero means the message never expires.
type Message struct {
	Type      string
	Origin    geometry.Vector3D
	Range     float64
	ExpiresAt float64
	Payload   any
}

// validAt reports whether the message may still be delivered at sim time now.
func (m Message) validAt(now float64) bool {
	return m.ExpiresAt == 0 || now <= m.ExpiresAt
}

// Handler receives a message on behalf of one agent. Returning an error (or
// panicking) is logged and isolated; it never blocks other handlers or
// agents.
type Handler func(agentID string, msg Message) error

// Bus queues positional broadcasts and delivers them to type-matched
// handlers once per step, at most maxPerStep messages each step so a burst
// cannot stall the step. Excess messages stay queued for the next step,
// never silently dropped.
type Bus struct {
	handlers   map[string][]Handler
	queue      []Message
	maxPerStep int
	logger     log.Logger
}

// NewBus creates a bus delivering up to maxPerStep messages per step.
func NewBus(maxPerStep int, logger log.Logger) *Bus {
	if maxPerStep <= 0 {
		maxPerStep = 64
	}
	if logger == nil {
		logger = log.DiscardLogger
	}
	return &Bus{
		handlers:   make(map[string][]Handler),
		maxPerStep: maxPerStep,
		logger:     logger,
	}
}

// Subscribe appends a handler to the ordered list for a message type.
// Handlers run in subscription order on every delivery.
func (b *Bus) Subscribe(msgType string, h Handler) {
	b.handlers[msgType] = append(b.handlers[msgType], h)
}

// Broadcast enqueues a message for delivery starting next step.
func (b *Bus) Broadcast(msg Message) {
	b.queue = append(b.queue, msg)
}

// Pending returns the number of queued, undelivered messages.
func (b *Bus) Pending() int {
	return len(b.queue)
}

// dispatch delivers up to maxPerStep queued messages against the world's
// settled agent positions. Called by World.Step before the compute phase.
func (b *Bus) dispatch(w *World) {
	n := len(b.queue)
	if n > b.maxPerStep {
		n = b.maxPerStep
	}
	for _, msg := range b.queue[:n] {
		b.deliver(w, msg)
	}
	remaining := copy(b.queue, b.queue[n:])
	b.queue = b.queue[:remaining]
	if remaining > 0 {
		b.logger.Debugf("message cap reached, %d messages carried to next step", remaining)
	}
}

func (b *Bus) deliver(w *World, msg Message) {
	if !msg.validAt(w.simTime) {
		b.logger.Debugf("dropping expired %q message (expired %.2fs, now %.2fs)", msg.Type, msg.ExpiresAt, w.simTime)
		return
	}
	handlers := b.handlers[msg.Type]
	if len(handlers) == 0 {
		return
	}
	rangeSq := msg.Range * msg.Range
	for _, id := range w.order {
		if w.agents[id].Pos.DistanceSquaredTo(msg.Origin) > rangeSq {
			continue
		}
		for i, h := range handlers {
			b.invoke(h, i, id, msg)
		}
	}
}

// invoke isolates one handler call: an error or panic is logged and the
// remaining handlers still run.
func (b *Bus) invoke(h Handler, idx int, agentID string, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("handler %d for %q panicked on %s: %v", idx, msg.Type, agentID, r)
		}
	}()
	if err := h(agentID, msg); err != nil {
		b.logger.Errorf("handler %d for %q failed on %s: %v", idx, msg.Type, agentID, err)
	}
}
