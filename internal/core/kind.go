// Package core implements the channel and session lifecycle: token
// issuance, admission, connection binding, message fan-out and idle
// channel eviction. State is held purely in memory and rebuilt empty on
// restart.
package core

import "fmt"

// ChannelKind identifies the namespace a channel lives in.
type ChannelKind string

const (
	// KindGroup is a multi-party channel.
	KindGroup ChannelKind = "gc"
	// KindDirect is an exactly-two-party channel.
	KindDirect ChannelKind = "dm"
)

// Kinds lists every valid channel kind.
var Kinds = []ChannelKind{KindGroup, KindDirect}

// ParseKind validates a wire-level kind string.
func ParseKind(s string) (ChannelKind, error) {
	switch ChannelKind(s) {
	case KindGroup:
		return KindGroup, nil
	case KindDirect:
		return KindDirect, nil
	default:
		return "", invalidChatType(fmt.Sprintf("unknown chat type %q", s))
	}
}

// directMaxUsers is the hard member cap for direct channels.
const directMaxUsers = 2
