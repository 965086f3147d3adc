package core

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestManager() (*Manager, *Registry) {
	logger := zerolog.Nop()
	registry := NewRegistry()
	return NewManager(registry, NewTokenIssuer(), &logger), registry
}

func newTestBinder(registry *Registry) *Binder {
	logger := zerolog.Nop()
	return NewBinder(registry, NewBroadcaster(&logger), &logger)
}

// fakeConn is an in-memory Conn for exercising the binder and broadcaster.
type fakeConn struct {
	inbound chan string
	done    chan struct{}

	mu          sync.Mutex
	sent        []string
	sendErr     error
	closeReason string
	closed      bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan string, 8),
		done:    make(chan struct{}),
	}
}

func (f *fakeConn) Receive(ctx context.Context) (string, error) {
	select {
	case msg := <-f.inbound:
		return msg, nil
	case <-f.done:
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *fakeConn) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeConn) Close(reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.closeReason = reason
	close(f.done)
	return nil
}

// disconnect simulates the peer dropping the connection.
func (f *fakeConn) disconnect() {
	_ = f.Close("peer disconnected")
}

func (f *fakeConn) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeConn) closedReason() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeReason
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, desc string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

// isBound reports whether the session owned by token has a live connection.
func isBound(ch *Channel, token string) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	s, ok := ch.members[token]
	return ok && s.conn != nil
}

// hasMember reports whether the token is still admitted.
func hasMember(ch *Channel, token string) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	_, ok := ch.members[token]
	return ok
}
