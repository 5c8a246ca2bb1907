package chat

import (
	"fmt"

	"github.com/webtop-sh/webtop/internal/infrastructure/storage"
)

// identityKey is the durable entry holding the remembered username. It
// exists only when the user explicitly asked to be remembered.
const identityKey = "username"

// IdentityStore persists the remembered chat identity.
type IdentityStore struct {
	kv storage.KV
}

// NewIdentityStore creates an identity store on top of durable storage.
func NewIdentityStore(kv storage.KV) *IdentityStore {
	return &IdentityStore{kv: kv}
}

// Remember persists the username durably.
func (s *IdentityStore) Remember(name string) error {
	if err := s.kv.Set(identityKey, []byte(name)); err != nil {
		return fmt.Errorf("failed to remember identity: %w", err)
	}
	return nil
}

// Lookup returns the persisted username, if any. Storage errors read as
// an absent identity; the user is simply asked again.
func (s *IdentityStore) Lookup() (string, bool) {
	data, ok, err := s.kv.Get(identityKey)
	if err != nil || !ok || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// Forget removes the persisted username.
func (s *IdentityStore) Forget() error {
	if err := s.kv.Delete(identityKey); err != nil {
		return fmt.Errorf("failed to forget identity: %w", err)
	}
	return nil
}
