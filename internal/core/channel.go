package core

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Conn is a live bidirectional text connection as seen by the core layer.
// The transport owns the real socket and adapts it to this interface.
type Conn interface {
	// Receive blocks until the next inbound text payload.
	Receive(ctx context.Context) (string, error)
	// Send delivers a text payload to the peer.
	Send(ctx context.Context, text string) error
	// Close terminates the connection with a human-readable reason.
	Close(reason string) error
}

// UserSession is one admitted identity within a channel.
type UserSession struct {
	// OriginIP is the network identity recorded at token issuance.
	// The bearer must present the same origin to bind a connection.
	OriginIP string

	// DisplayName is unique, case-insensitively, among connected sessions.
	DisplayName string

	// conn is nil until a connection is bound.
	conn Conn
}

// adminIdentity records an identity first admitted to the channel,
// eligible for token reclamation by origin match.
type adminIdentity struct {
	token    string
	originIP string
}

// Channel is one live chat scope.
//
// mu guards members and admins. lastActive is atomic so the sweeper can
// read it without taking the channel lock.
type Channel struct {
	Token string
	Kind  ChannelKind

	// AutoJoin is stored for downstream policy and not enforced here.
	AutoJoin bool
	// MaxUsers of 0 means unbounded. Direct channels are forced to 2.
	MaxUsers int
	// AllowDirectBetweenMembers is stored for downstream policy and not
	// enforced here.
	AllowDirectBetweenMembers bool

	// superpasswordHash is the bcrypt hash of the creation secret.
	superpasswordHash []byte

	mu      sync.Mutex
	members map[string]*UserSession
	admins  []adminIdentity

	lastActive atomic.Int64 // unix nanos
}

func newChannel(kind ChannelKind, token string, autoJoin bool, maxUsers int, allowDM bool, superpasswordHash []byte) *Channel {
	ch := &Channel{
		Token:                     token,
		Kind:                      kind,
		AutoJoin:                  autoJoin,
		MaxUsers:                  maxUsers,
		AllowDirectBetweenMembers: allowDM,
		superpasswordHash:         superpasswordHash,
		members:                   make(map[string]*UserSession),
	}
	ch.touch(time.Now())
	return ch
}

// touch advances lastActive, keeping it monotonically non-decreasing.
func (ch *Channel) touch(now time.Time) {
	ts := now.UnixNano()
	for {
		prev := ch.lastActive.Load()
		if ts <= prev || ch.lastActive.CompareAndSwap(prev, ts) {
			return
		}
	}
}

// LastActive returns the time of the channel's most recent broadcast
// (or its creation, whichever is later).
func (ch *Channel) LastActive() time.Time {
	return time.Unix(0, ch.lastActive.Load())
}

// MemberCount returns the number of admitted sessions, connected or not.
func (ch *Channel) MemberCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.members)
}

// hasToken reports whether a user token is admitted. Callers must hold mu
// or tolerate staleness; the token issuer uses it under mu via the manager.
func (ch *Channel) hasToken(token string) bool {
	_, ok := ch.members[token]
	return ok
}

// nameConnected reports whether any currently-connected member's display
// name matches name case-insensitively. Caller must hold mu.
func (ch *Channel) nameConnected(name string) bool {
	for _, s := range ch.members {
		if s.conn != nil && strings.EqualFold(s.DisplayName, name) {
			return true
		}
	}
	return false
}

// destroy discards every session and closes the bound connections, ending
// their receive loops. Called after the channel leaves the registry so no
// binder can relay on the orphaned channel. Connections are snapshotted
// under the lock and closed outside it.
func (ch *Channel) destroy(reason string) {
	ch.mu.Lock()
	conns := make([]Conn, 0, len(ch.members))
	for _, s := range ch.members {
		if s.conn != nil {
			conns = append(conns, s.conn)
		}
	}
	ch.members = make(map[string]*UserSession)
	ch.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close(reason)
	}
}

// recipientConns snapshots the bound connections of every member except
// the sender. The snapshot is taken under the channel lock so delivery can
// happen outside it without racing an unbind.
func (ch *Channel) recipientConns(senderToken string) []Conn {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	conns := make([]Conn, 0, len(ch.members))
	for token, s := range ch.members {
		if token == senderToken || s.conn == nil {
			continue
		}
		conns = append(conns, s.conn)
	}
	return conns
}
