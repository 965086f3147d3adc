package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Broadcaster fans an inbound message out to every other bound member of
// a channel.
type Broadcaster struct {
	log *zerolog.Logger
}

// NewBroadcaster creates a broadcaster.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{log: logger}
}

// Broadcast forwards payload verbatim to every member of ch other than the
// sender that currently has a bound connection, and marks the channel
// active. Recipient connections are snapshotted under the channel lock and
// delivery happens outside it, so a slow recipient never blocks membership
// mutation. Delivery is best-effort: a failed send is logged and skipped.
func (b *Broadcaster) Broadcast(ctx context.Context, ch *Channel, senderToken, payload string) {
	ch.touch(time.Now())

	for _, conn := range ch.recipientConns(senderToken) {
		if err := conn.Send(ctx, payload); err != nil {
			b.log.Warn().
				Err(err).
				Str("chat_token", ch.Token).
				Msg("dropped broadcast to one recipient")
		}
	}
}
