package anubis

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/user"
)

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}

type verificationEntry struct {
	principal user.Principal
	expiresAt time.Time
}

// verificationCache keeps recent successful introspections keyed by token
// digest. Entries expire on read; there is no background sweeper because the
// working set is bounded by active sessions.
type verificationCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]verificationEntry
}

func newVerificationCache(ttl time.Duration) *verificationCache {
	return &verificationCache{
		ttl:     ttl,
		entries: make(map[string]verificationEntry),
	}
}

func (c *verificationCache) get(digest string) (user.Principal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[digest]
	if !ok {
		return user.Principal{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, digest)
		return user.Principal{}, false
	}
	return entry.principal, true
}

func (c *verificationCache) put(digest string, principal user.Principal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[digest] = verificationEntry{
		principal: principal,
		expiresAt: time.Now().Add(c.ttl),
	}
}
