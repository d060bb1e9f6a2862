package state

import (
	"time"

	"github.com/bft-labs/guardian/internal/domain"
)

// Document is the single persisted aggregate: which users have been
// welcomed, warned, and removed, keyed by user id.
//
// JSON uses snake_case field names for compatibility with state files
// written by earlier versions of the daemon.
type Document struct {
	Welcomed           map[string]time.Time      `json:"welcomed"`
	Warned             map[string]time.Time      `json:"warned"`
	Removed            map[string]domain.Removal `json:"removed"`
	LastInactivityScan time.Time                 `json:"last_inactivity_scan"`
}

// NewDocument returns an empty document with all maps initialized.
func NewDocument() *Document {
	return &Document{
		Welcomed: make(map[string]time.Time),
		Warned:   make(map[string]time.Time),
		Removed:  make(map[string]domain.Removal),
	}
}

// normalize initializes any nil maps after JSON decoding.
func (d *Document) normalize() {
	if d.Welcomed == nil {
		d.Welcomed = make(map[string]time.Time)
	}
	if d.Warned == nil {
		d.Warned = make(map[string]time.Time)
	}
	if d.Removed == nil {
		d.Removed = make(map[string]domain.Removal)
	}
}

// Clone returns a deep copy. Scans operate on a clone so a failed save
// never leaves a half-mutated document behind.
func (d *Document) Clone() *Document {
	c := &Document{
		Welcomed:           make(map[string]time.Time, len(d.Welcomed)),
		Warned:             make(map[string]time.Time, len(d.Warned)),
		Removed:            make(map[string]domain.Removal, len(d.Removed)),
		LastInactivityScan: d.LastInactivityScan,
	}
	for k, v := range d.Welcomed {
		c.Welcomed[k] = v
	}
	for k, v := range d.Warned {
		c.Warned[k] = v
	}
	for k, v := range d.Removed {
		c.Removed[k] = v
	}
	return c
}

// MarkWelcomed records the welcome timestamp for a user.
func (d *Document) MarkWelcomed(id string, at time.Time) {
	d.Welcomed[id] = at
}

// MarkWarned records the warning timestamp for a user.
func (d *Document) MarkWarned(id string, at time.Time) {
	d.Warned[id] = at
}

// MarkRemoved records a removal attempt. A Success=false entry is not
// terminal; the next scan retries the removal.
func (d *Document) MarkRemoved(id string, r domain.Removal) {
	d.Removed[id] = r
}

// IsRemovalFinal reports whether the user has been removed for good.
func (d *Document) IsRemovalFinal(id string) bool {
	r, ok := d.Removed[id]
	return ok && r.Success
}

// Reset clears every trace of the user. Used when a previously removed
// user rejoins and must be treated as new.
func (d *Document) Reset(id string) {
	delete(d.Welcomed, id)
	delete(d.Warned, id)
	delete(d.Removed, id)
}

// Tracked reports whether the user appears in any lifecycle map.
func (d *Document) Tracked(id string) bool {
	if _, ok := d.Welcomed[id]; ok {
		return true
	}
	if _, ok := d.Warned[id]; ok {
		return true
	}
	_, ok := d.Removed[id]
	return ok
}
