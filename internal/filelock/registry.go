package filelock

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/konvertorxml/konvertorxml/internal/errors"
)

// Sentinel errors returned by Release.
var (
	// ErrNotOwner is returned when an owner releases a path claimed by someone else.
	ErrNotOwner = errors.New("path is claimed by another owner")

	// ErrNotClaimed is returned when releasing a path nobody claimed.
	ErrNotClaimed = errors.New("path is not claimed")
)

// Claim records who owns a path and since when.
type Claim struct {
	Owner     string
	Path      string
	ClaimedAt time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now for claim timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithReleaseHandler registers fn to run after every successful release,
// outside the registry lock.
func WithReleaseHandler(fn func(Claim)) Option {
	return func(r *Registry) {
		r.onRelease = append(r.onRelease, fn)
	}
}

// Registry is an in-memory map of path to owner. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	claims    map[string]Claim
	now       func() time.Time
	onRelease []func(Claim)
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		claims: make(map[string]Claim),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Claim takes ownership of path for owner. Claiming a path the owner
// already holds is a no-op. A path held by a different owner yields an
// error wrapping errors.ErrAlreadyClaimed.
func (r *Registry) Claim(owner, path string) error {
	key := normalize(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.claims[key]; ok {
		if existing.Owner == owner {
			return nil
		}
		return fmt.Errorf("%w: %s (owner %s)", errors.ErrAlreadyClaimed, path, existing.Owner)
	}
	r.claims[key] = Claim{Owner: owner, Path: key, ClaimedAt: r.now()}
	return nil
}

// TryClaim is Claim reporting success as a bool.
func (r *Registry) TryClaim(owner, path string) bool {
	return r.Claim(owner, path) == nil
}

// Release gives up owner's claim on path.
func (r *Registry) Release(owner, path string) error {
	key := normalize(path)

	r.mu.Lock()
	claim, ok := r.claims[key]
	switch {
	case !ok:
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotClaimed, path)
	case claim.Owner != owner:
		r.mu.Unlock()
		return fmt.Errorf("%w: %s (owner %s)", ErrNotOwner, path, claim.Owner)
	}
	delete(r.claims, key)
	r.mu.Unlock()

	r.notify(claim)
	return nil
}

// ReleaseAll drops every claim held by owner and returns how many there were.
func (r *Registry) ReleaseAll(owner string) int {
	r.mu.Lock()
	var released []Claim
	for key, c := range r.claims {
		if c.Owner == owner {
			released = append(released, c)
			delete(r.claims, key)
		}
	}
	r.mu.Unlock()

	for _, c := range released {
		r.notify(c)
	}
	return len(released)
}

func (r *Registry) notify(c Claim) {
	for _, fn := range r.onRelease {
		fn(c)
	}
}

// Owner returns the owner of path, if any.
func (r *Registry) Owner(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.claims[normalize(path)]
	return c.Owner, ok
}

// IsAvailable reports whether path is unclaimed.
func (r *Registry) IsAvailable(path string) bool {
	_, claimed := r.Owner(path)
	return !claimed
}

// Claims returns a snapshot of all claims sorted by path.
func (r *Registry) Claims() []Claim {
	r.mu.RLock()
	out := make([]Claim, 0, len(r.claims))
	for _, c := range r.claims {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
