package core

import (
	"context"
	"testing"
)

func TestBindChannelNotFound(t *testing.T) {
	_, registry := newTestManager()
	binder := newTestBinder(registry)

	conn := newFakeConn()
	err := binder.ServeConn(context.Background(), KindGroup, "missing1", "whatever", testIP, conn)

	if code := coreCode(t, err); code != ErrCodeChannelNotFound {
		t.Fatalf("expected channel_not_found, got %s", code)
	}
	if conn.closedReason() != "channel not found" {
		t.Fatalf("expected explicit close reason, got %q", conn.closedReason())
	}
}

func TestBindUnknownTokenUnauthorized(t *testing.T) {
	m, registry := newTestManager()
	binder := newTestBinder(registry)

	created := mustCreateChannel(t, m, KindGroup, 0, "alice", testIP)

	conn := newFakeConn()
	err := binder.ServeConn(context.Background(), KindGroup, created.ChannelToken, "forged-token-0000", testIP, conn)

	if code := coreCode(t, err); code != ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", code)
	}
	if conn.closedReason() == "" {
		t.Fatal("rejected connection must be closed with a reason")
	}
}

func TestBindOriginMismatchUnauthorized(t *testing.T) {
	m, registry := newTestManager()
	binder := newTestBinder(registry)

	created := mustCreateChannel(t, m, KindGroup, 0, "alice", testIP)

	// Valid token stolen by a different network origin.
	conn := newFakeConn()
	err := binder.ServeConn(context.Background(), KindGroup, created.ChannelToken, created.UserToken, "198.51.100.66", conn)

	if code := coreCode(t, err); code != ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", code)
	}
}

func TestBindAlreadyConnected(t *testing.T) {
	m, registry := newTestManager()
	binder := newTestBinder(registry)

	created := mustCreateChannel(t, m, KindGroup, 0, "alice", testIP)
	ch := registry.Get(KindGroup, created.ChannelToken)

	first := newFakeConn()
	go func() {
		_ = binder.ServeConn(context.Background(), KindGroup, created.ChannelToken, created.UserToken, testIP, first)
	}()
	waitFor(t, func() bool { return isBound(ch, created.UserToken) }, "first connection bound")

	second := newFakeConn()
	err := binder.ServeConn(context.Background(), KindGroup, created.ChannelToken, created.UserToken, testIP, second)
	if code := coreCode(t, err); code != ErrCodeAlreadyConnected {
		t.Fatalf("expected already_connected, got %s", code)
	}

	// The first connection stays bound and the session survives.
	if !isBound(ch, created.UserToken) {
		t.Fatal("first connection lost its binding")
	}
	first.disconnect()
}

func TestReceiveLoopBroadcastsToOthers(t *testing.T) {
	m, registry := newTestManager()
	binder := newTestBinder(registry)

	created := mustCreateChannel(t, m, KindGroup, 0, "alice", testIP)
	ch := registry.Get(KindGroup, created.ChannelToken)

	bobToken, err := m.IssueMembership(KindGroup, created.ChannelToken, "bob", "198.51.100.1")
	if err != nil {
		t.Fatalf("issue bob: %v", err)
	}

	alice := newFakeConn()
	bob := newFakeConn()
	go func() {
		_ = binder.ServeConn(context.Background(), KindGroup, created.ChannelToken, created.UserToken, testIP, alice)
	}()
	go func() {
		_ = binder.ServeConn(context.Background(), KindGroup, created.ChannelToken, bobToken, "198.51.100.1", bob)
	}()
	waitFor(t, func() bool { return isBound(ch, created.UserToken) && isBound(ch, bobToken) }, "both connections bound")

	alice.inbound <- "hi"

	waitFor(t, func() bool { return len(bob.sentMessages()) == 1 }, "bob receives the message")
	if got := bob.sentMessages()[0]; got != "hi" {
		t.Fatalf("payload altered in transit: %q", got)
	}
	if len(alice.sentMessages()) != 0 {
		t.Fatalf("sender must not receive its own message, got %v", alice.sentMessages())
	}

	alice.disconnect()
	bob.disconnect()
}

func TestDisconnectConsumesToken(t *testing.T) {
	m, registry := newTestManager()
	binder := newTestBinder(registry)

	created := mustCreateChannel(t, m, KindGroup, 0, "alice", testIP)
	ch := registry.Get(KindGroup, created.ChannelToken)

	conn := newFakeConn()
	done := make(chan error, 1)
	go func() {
		done <- binder.ServeConn(context.Background(), KindGroup, created.ChannelToken, created.UserToken, testIP, conn)
	}()
	waitFor(t, func() bool { return isBound(ch, created.UserToken) }, "connection bound")

	conn.disconnect()
	if err := <-done; err != nil {
		t.Fatalf("normal disconnect should not error: %v", err)
	}

	if hasMember(ch, created.UserToken) {
		t.Fatal("session must be removed after disconnect")
	}

	// The consumed token can never be rebound.
	retry := newFakeConn()
	err := binder.ServeConn(context.Background(), KindGroup, created.ChannelToken, created.UserToken, testIP, retry)
	if code := coreCode(t, err); code != ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized for consumed token, got %s", code)
	}
}

func TestLastActiveBumpedByInboundMessages(t *testing.T) {
	m, registry := newTestManager()
	binder := newTestBinder(registry)

	created := mustCreateChannel(t, m, KindGroup, 0, "alice", testIP)
	ch := registry.Get(KindGroup, created.ChannelToken)

	before := ch.LastActive()

	conn := newFakeConn()
	go func() {
		_ = binder.ServeConn(context.Background(), KindGroup, created.ChannelToken, created.UserToken, testIP, conn)
	}()
	waitFor(t, func() bool { return isBound(ch, created.UserToken) }, "connection bound")

	conn.inbound <- "ping"
	waitFor(t, func() bool { return ch.LastActive().After(before) }, "lastActive advanced")

	conn.disconnect()
}
