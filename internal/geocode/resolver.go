package geocode

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/greenloop/ecopost/backend/internal/models"
)

const (
	// defaultDebounce is the quiet period after the last keystroke before a
	// forward lookup is issued
	defaultDebounce = 300 * time.Millisecond

	// minQueryLength is the shortest trimmed query that triggers a lookup
	minQueryLength = 3
)

// Geocoder is the lookup service consumed by a Resolver
type Geocoder interface {
	ForwardSearch(ctx context.Context, query string) ([]models.LocationCandidate, error)
	Reverse(ctx context.Context, longitude, latitude float64) (string, error)
}

// Resolver drives the two location lookup flows: debounced autocomplete on
// typed input, and map-click reverse lookup gated on user confirmation.
// Both converge on one selected {address, latitude, longitude} triple.
type Resolver struct {
	mu         sync.Mutex
	geocoder   Geocoder
	debounce   time.Duration
	onResults  func([]models.LocationCandidate)
	timer      *time.Timer
	generation uint64
	candidates []models.LocationCandidate
	selected   *models.SelectedLocation
	closed     bool
}

// NewResolver creates a Resolver. onResults receives each delivered
// candidate list and may be nil.
func NewResolver(geocoder Geocoder, onResults func([]models.LocationCandidate)) *Resolver {
	return &Resolver{
		geocoder:  geocoder,
		debounce:  defaultDebounce,
		onResults: onResults,
	}
}

// WithDebounce overrides the debounce window, used by tests
func (r *Resolver) WithDebounce(d time.Duration) *Resolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debounce = d
	return r
}

// Search registers a keystroke. Any pending lookup is cancelled and the
// debounce timer restarts. Trimmed queries under three characters clear the
// candidate list without a network call.
func (r *Resolver) Search(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.stopTimerLocked()
	r.generation++

	text = strings.TrimSpace(text)
	if len(text) < minQueryLength {
		r.candidates = nil
		r.deliverLocked(nil)
		return
	}

	gen := r.generation
	r.timer = time.AfterFunc(r.debounce, func() {
		r.lookup(gen, text)
	})
}

// lookup performs the debounced forward search. Network failure is
// fail-soft: an empty candidate list is delivered.
func (r *Resolver) lookup(gen uint64, text string) {
	r.mu.Lock()
	if r.closed || gen != r.generation {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	candidates, err := r.geocoder.ForwardSearch(context.Background(), text)
	if err != nil {
		candidates = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.generation {
		// A newer keystroke or teardown superseded this lookup
		return
	}
	r.candidates = candidates
	r.deliverLocked(candidates)
}

// Candidates returns the current autocomplete candidates
func (r *Resolver) Candidates() []models.LocationCandidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.LocationCandidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Select commits one candidate as the resolved location and clears the
// candidate list
func (r *Resolver) Select(c models.LocationCandidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = &models.SelectedLocation{
		Address:   c.DisplayName,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}
	r.candidates = nil
}

// Selected returns the committed location, or nil when none is selected
func (r *Resolver) Selected() *models.SelectedLocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selected == nil {
		return nil
	}
	sel := *r.selected
	return &sel
}

// ResolvePoint reverse-geocodes a map click. The resolved place name is
// passed to confirm; only an accepted confirmation commits the location.
// A declined confirmation or a lookup error leaves prior state untouched.
func (r *Resolver) ResolvePoint(ctx context.Context, longitude, latitude float64, confirm func(placeName string) bool) error {
	place, err := r.geocoder.Reverse(ctx, longitude, latitude)
	if err != nil {
		return err
	}

	if !confirm(place) {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = &models.SelectedLocation{
		Address:   place,
		Latitude:  latitude,
		Longitude: longitude,
	}
	return nil
}

// ApplyTo copies the selected location into a post draft, touching only the
// location fields so the rest of the draft survives the hand-off
func (r *Resolver) ApplyTo(draft *models.CreatePostRequest) {
	sel := r.Selected()
	if sel == nil {
		return
	}
	draft.Location = sel.Address
	draft.Latitude = sel.Latitude
	draft.Longitude = sel.Longitude
}

// Close cancels any pending debounced lookup so a stale callback cannot fire
// after the consuming view is gone
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopTimerLocked()
	r.generation++
}

func (r *Resolver) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Resolver) deliverLocked(candidates []models.LocationCandidate) {
	if r.onResults != nil {
		r.onResults(candidates)
	}
}
