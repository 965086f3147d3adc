package core

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances superpassword hashing time against brute-force
// resistance; channel creation is not a hot path.
const bcryptCost = 10

// Manager implements admission, name uniqueness, capacity limits and
// channel creation on top of the registry.
type Manager struct {
	registry *Registry
	issuer   *TokenIssuer
	log      *zerolog.Logger
}

// NewManager creates a membership manager.
func NewManager(registry *Registry, issuer *TokenIssuer, logger *zerolog.Logger) *Manager {
	return &Manager{
		registry: registry,
		issuer:   issuer,
		log:      logger,
	}
}

// CreatedChannel is everything returned to the creator of a channel,
// including the one-time plaintext superpassword.
type CreatedChannel struct {
	UserToken     string
	ChannelToken  string
	Kind          ChannelKind
	Superpassword string
}

// CreateChannel allocates a channel, then admits the creator as its first
// member. Direct channels are always capped at 2 members regardless of the
// requested maxUsers.
func (m *Manager) CreateChannel(kind ChannelKind, autoJoin bool, maxUsers int, allowDM bool, name, originIP string) (*CreatedChannel, error) {
	switch kind {
	case KindGroup:
	case KindDirect:
		maxUsers = directMaxUsers
	default:
		return nil, invalidChatType(fmt.Sprintf("unknown chat type %q", kind))
	}

	token, err := m.issuer.ChannelToken(func(candidate string) bool {
		return m.registry.Exists(kind, candidate)
	})
	if err != nil {
		return nil, err
	}

	superpassword, err := m.issuer.Superpassword()
	if err != nil {
		return nil, fmt.Errorf("generate superpassword: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(superpassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash superpassword: %w", err)
	}

	ch := newChannel(kind, token, autoJoin, maxUsers, allowDM, hash)
	m.registry.Insert(ch)

	userToken, err := m.IssueMembership(kind, token, name, originIP)
	if err != nil {
		// The channel stays; the creator can retry admission with a
		// different name.
		return nil, err
	}

	m.log.Info().
		Str("kind", string(kind)).
		Str("chat_token", token).
		Int("max_users", maxUsers).
		Msg("channel created")

	return &CreatedChannel{
		UserToken:     userToken,
		ChannelToken:  token,
		Kind:          kind,
		Superpassword: superpassword,
	}, nil
}

// IssueMembership admits (name, originIP) into a channel and returns the
// membership token the bearer must later present to bind a connection.
func (m *Manager) IssueMembership(kind ChannelKind, channelToken, name, originIP string) (string, error) {
	ch := m.registry.Get(kind, channelToken)
	if ch == nil {
		return "", channelNotFound()
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.nameConnected(name) {
		return "", nameTaken(name)
	}
	if ch.MaxUsers != 0 && len(ch.members) >= ch.MaxUsers {
		return "", capacityReached()
	}

	token := reclaimAdminToken(ch, originIP)
	if token == "" {
		var err error
		token, err = m.issuer.UserToken(ch.hasToken)
		if err != nil {
			return "", err
		}
	}

	ch.members[token] = &UserSession{
		OriginIP:    originIP,
		DisplayName: name,
	}

	// The channel's first-ever admission becomes its founding admin.
	if len(ch.admins) == 0 {
		ch.admins = append(ch.admins, adminIdentity{token: token, originIP: originIP})
	}

	m.log.Debug().
		Str("kind", string(kind)).
		Str("chat_token", channelToken).
		Str("name", name).
		Msg("membership issued")

	return token, nil
}

// DeleteChannel removes a channel out-of-band given its superpassword.
func (m *Manager) DeleteChannel(kind ChannelKind, channelToken, superpassword string) error {
	ch := m.registry.Get(kind, channelToken)
	if ch == nil {
		return channelNotFound()
	}
	if err := bcrypt.CompareHashAndPassword(ch.superpasswordHash, []byte(superpassword)); err != nil {
		return badSuperpassword()
	}

	m.registry.Remove(kind, channelToken)
	ch.destroy("channel deleted")
	m.log.Info().
		Str("kind", string(kind)).
		Str("chat_token", channelToken).
		Msg("channel deleted by superpassword")
	return nil
}

// reclaimAdminToken restores a previously-admitted admin identity: if a
// recorded admin's origin IP matches and its token is no longer admitted,
// that token is reissued instead of minting a new one. Matching by origin
// IP is a known trust weakness (NAT, address reuse) kept for compatibility.
// Caller must hold ch.mu.
func reclaimAdminToken(ch *Channel, originIP string) string {
	var token string
	for _, admin := range ch.admins {
		if admin.originIP == originIP && !ch.hasToken(admin.token) {
			token = admin.token
		}
	}
	return token
}
