package catalog

import (
	"errors"
	"sync"
	"time"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/normalize"
)

const DefaultHeroInterval = 8 * time.Second

var ErrHeroIndex = errors.New("hero index out of range")

// HeroRotator advances the featured item on a fixed interval. The ticker is
// owned by the rotator: Replace and Select restart it, Stop clears it. With
// fewer than two items no ticker runs.
type HeroRotator struct {
	mu        sync.Mutex
	items     []domain.CatalogItem
	index     int
	rotatedAt time.Time
	interval  time.Duration
	stop      chan struct{}
	stopped   bool
	now       func() time.Time
}

func NewHeroRotator(interval time.Duration) *HeroRotator {
	if interval <= 0 {
		interval = DefaultHeroInterval
	}
	return &HeroRotator{
		interval: interval,
		now:      time.Now,
	}
}

// Replace swaps the items, shows the first one and restarts the interval.
func (h *HeroRotator) Replace(items []domain.CatalogItem) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.items = append([]domain.CatalogItem(nil), items...)
	h.index = 0
	h.rotatedAt = h.now()
	h.restartLocked()
}

// Select jumps to index and resets the interval so the chosen item gets a
// full period on screen.
func (h *HeroRotator) Select(index int) (domain.HeroState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || index >= len(h.items) {
		return h.stateLocked(), ErrHeroIndex
	}
	h.index = index
	h.rotatedAt = h.now()
	if !h.stopped {
		h.restartLocked()
	}
	return h.stateLocked(), nil
}

// Advance moves to the next item, wrapping around.
func (h *HeroRotator) Advance() domain.HeroState {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.items) > 0 {
		h.index = (h.index + 1) % len(h.items)
		h.rotatedAt = h.now()
	}
	return h.stateLocked()
}

func (h *HeroRotator) State() domain.HeroState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stateLocked()
}

// Running reports whether a ticker is active.
func (h *HeroRotator) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stop != nil
}

// Stop clears the ticker for good. Safe to call more than once.
func (h *HeroRotator) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	h.haltLocked()
}

func (h *HeroRotator) stateLocked() domain.HeroState {
	state := domain.HeroState{
		Index:     h.index,
		Items:     append([]domain.CatalogItem(nil), h.items...),
		RotatedAt: h.rotatedAt,
	}
	if h.index < len(h.items) {
		item := h.items[h.index]
		state.Item = &item
		state.Excerpt = normalize.Excerpt(item.Description, normalize.HeroExcerptLength)
	}
	return state
}

func (h *HeroRotator) restartLocked() {
	h.haltLocked()
	if len(h.items) < 2 {
		return
	}
	stop := make(chan struct{})
	h.stop = stop
	go h.run(stop, h.interval)
}

func (h *HeroRotator) haltLocked() {
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
}

func (h *HeroRotator) run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.mu.Lock()
			// A restart may have raced this tick.
			select {
			case <-stop:
				h.mu.Unlock()
				return
			default:
			}
			if len(h.items) > 0 {
				h.index = (h.index + 1) % len(h.items)
				h.rotatedAt = h.now()
			}
			h.mu.Unlock()
		}
	}
}
