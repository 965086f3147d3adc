package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Binder attaches accepted transport connections to previously issued
// membership tokens, enforcing at most one live connection per token, and
// then drives the connection's receive loop.
type Binder struct {
	registry    *Registry
	broadcaster *Broadcaster
	log         *zerolog.Logger
}

// NewBinder creates a connection binder.
func NewBinder(registry *Registry, broadcaster *Broadcaster, logger *zerolog.Logger) *Binder {
	return &Binder{
		registry:    registry,
		broadcaster: broadcaster,
		log:         logger,
	}
}

// ServeConn validates the presented membership token against the observed
// network origin, binds conn to the session, and relays every inbound
// payload to the channel until the connection terminates.
//
// On rejection the connection is closed with an explicit reason before the
// error is returned. On termination, normal or not, the session is removed
// and the token is permanently consumed; a later bind with the same token
// fails as unauthorized.
func (b *Binder) ServeConn(ctx context.Context, kind ChannelKind, channelToken, userToken, originIP string, conn Conn) error {
	ch := b.registry.Get(kind, channelToken)
	if ch == nil {
		err := channelNotFound()
		_ = conn.Close(err.Message)
		return err
	}

	if err := bind(ch, userToken, originIP, conn); err != nil {
		_ = conn.Close(err.Message)
		return err
	}

	b.log.Debug().
		Str("kind", string(kind)).
		Str("chat_token", channelToken).
		Msg("connection bound")

	for {
		payload, err := conn.Receive(ctx)
		if err != nil {
			break
		}
		b.broadcaster.Broadcast(ctx, ch, userToken, payload)
	}

	unbind(ch, userToken)

	b.log.Debug().
		Str("kind", string(kind)).
		Str("chat_token", channelToken).
		Msg("connection unbound, session removed")

	return nil
}

// bind validates and attaches conn to the session owned by userToken.
func bind(ch *Channel, userToken, originIP string, conn Conn) *CoreError {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	session, ok := ch.members[userToken]
	if !ok || session.OriginIP != originIP {
		// Token possession alone is not enough; the origin recorded at
		// issuance must match the connecting party.
		return unauthorized()
	}
	if session.conn != nil {
		return alreadyConnected()
	}

	session.conn = conn
	return nil
}

// unbind deletes the whole session; the token can never be rebound.
func unbind(ch *Channel, userToken string) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	delete(ch.members, userToken)
}
