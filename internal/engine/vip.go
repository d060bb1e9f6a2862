package engine

import (
	"strings"
	"sync"

	"github.com/bft-labs/guardian/internal/domain"
)

// VIPList decides which identities are exempt from warning and removal.
// The admin email is always VIP; further names come from configuration
// and can be swapped at runtime by the config watcher, so access is
// guarded by a lock.
type VIPList struct {
	mu         sync.RWMutex
	adminEmail string
	names      map[string]bool
}

// NewVIPList builds a matcher from the admin email and a name list.
func NewVIPList(adminEmail string, names []string) *VIPList {
	v := &VIPList{adminEmail: strings.ToLower(strings.TrimSpace(adminEmail))}
	v.SetNames(names)
	return v
}

// SetNames replaces the configured VIP name set.
func (v *VIPList) SetNames(names []string) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = true
		}
	}
	v.mu.Lock()
	v.names = set
	v.mu.Unlock()
}

// Match reports whether the user is VIP, by admin email or by username
// or display name membership in the configured list.
func (v *VIPList) Match(u domain.UserFact) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.adminEmail != "" && strings.ToLower(u.Email) == v.adminEmail {
		return true
	}
	if v.names[strings.ToLower(u.Username)] {
		return true
	}
	return u.DisplayName != "" && v.names[strings.ToLower(u.DisplayName)]
}
