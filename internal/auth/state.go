package auth

import (
	"sync"
	"time"

	"github.com/go-oidc-login/go-oidc-login/internal/uniuri"
)

const (
	// DefaultStateTTL bounds how long an issued state token stays valid.
	// A login that takes longer than this at the provider starts over.
	DefaultStateTTL = 5 * time.Minute

	stateTokenLen = 32
)

// StateStore issues and consumes the random state tokens carried through
// the authorization request, so a callback is only accepted for a login
// this process actually started. Tokens live in memory; a restart simply
// invalidates in-flight logins.
type StateStore struct {
	ttl  time.Duration
	stop chan struct{}

	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewStateStore creates a state store with the given token lifetime and
// starts the expiry sweep. A zero ttl selects DefaultStateTTL.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl == 0 {
		ttl = DefaultStateTTL
	}

	s := &StateStore{
		ttl:    ttl,
		stop:   make(chan struct{}),
		tokens: make(map[string]time.Time),
	}

	go s.sweep()

	return s
}

// Issue mints a new state token valid for the store's lifetime.
func (s *StateStore) Issue() string {
	token := uniuri.NewLen(stateTokenLen)

	s.mu.Lock()
	s.tokens[token] = time.Now().Add(s.ttl)
	s.mu.Unlock()

	return token
}

// Consume validates and invalidates a token in one step, so a token
// accepts exactly one callback. Unknown and expired tokens fail.
func (s *StateStore) Consume(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}

	delete(s.tokens, token)

	return time.Now().Before(expiry)
}

// Close stops the expiry sweep.
func (s *StateStore) Close() {
	close(s.stop)
}

func (s *StateStore) sweep() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()

			for token, expiry := range s.tokens {
				if now.After(expiry) {
					delete(s.tokens, token)
				}
			}

			s.mu.Unlock()
		}
	}
}
