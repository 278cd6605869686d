// Package guard resolves a stable caller identity for each turn and enforces
// the single-owner-per-session rule before any intent routing happens.
//
// Identity resolution prefers an explicit opaque client token; without one it
// derives a fallback identity from the caller's network address and
// user-agent. The two namespaces are prefixed so they can never collide.
package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/capacitamente/lyro-backend/internal/domain"
)

// ErrOwnerMismatch is returned when an existing session is referenced with a
// different identity than the one it was bound to. The caller must start a
// new session.
var ErrOwnerMismatch = errors.New("session owned by a different identity")

// SessionStore is the narrow session contract the guard needs.
type SessionStore interface {
	// GetSession fetches a session by id, or (nil, nil) when unseen.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// CreateSession creates a session bound to ownerIdentity. An empty id
	// asks the store to generate one.
	CreateSession(ctx context.Context, id, ownerIdentity string) (*domain.Session, error)
}

// anonHashLen is the number of hex characters kept from the fallback digest.
const anonHashLen = 16

// ResolveIdentity returns the durable identity for a caller: "tok:" plus the
// client-supplied token when present, otherwise "anon:" plus a truncated
// SHA-256 of the network address and user-agent.
func ResolveIdentity(clientToken, remoteAddr, userAgent string) string {
	if tok := strings.TrimSpace(clientToken); tok != "" {
		return "tok:" + tok
	}
	sum := sha256.Sum256([]byte(remoteAddr + "|" + userAgent))
	return "anon:" + hex.EncodeToString(sum[:])[:anonHashLen]
}

// Guard enforces session ownership.
type Guard struct {
	Sessions SessionStore
}

// Ensure resolves sessionID for identity: an empty or unseen id creates a
// new session bound to the identity; an existing session is returned only
// when the identity matches its owner, otherwise ErrOwnerMismatch.
func (g *Guard) Ensure(ctx context.Context, sessionID, identity string) (*domain.Session, error) {
	if sessionID == "" {
		return g.Sessions.CreateSession(ctx, "", identity)
	}

	s, err := g.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return g.Sessions.CreateSession(ctx, sessionID, identity)
	}
	if s.OwnerIdentity != identity {
		return nil, ErrOwnerMismatch
	}
	return s, nil
}
