// Package registry tracks the charging pile fleet and watches pile
// heartbeats.
package registry

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
)

// ErrPileNotFound is returned when a pile id is not registered.
var ErrPileNotFound = errors.New("registry: pile not found")

// Registry holds the known piles. Seeded piles start with a zero
// heartbeat and are exempt from staleness checks until they report one.
type Registry struct {
	mu    sync.RWMutex
	piles map[string]*models.Pile

	checkInterval time.Duration
	timeout       time.Duration
	logger        *zap.Logger
	clock         clockz.Clock
}

// New creates a Registry seeded with the configured piles.
func New(piles []models.Pile, checkInterval, timeout time.Duration, logger *zap.Logger, clock clockz.Clock) *Registry {
	if clock == nil {
		clock = clockz.RealClock
	}
	r := &Registry{
		piles:         make(map[string]*models.Pile, len(piles)),
		checkInterval: checkInterval,
		timeout:       timeout,
		logger:        logger,
		clock:         clock,
	}
	now := clock.Now().UTC()
	for i := range piles {
		pile := piles[i]
		if pile.Status == "" {
			pile.Status = models.PileAvailable
		}
		pile.UpdatedAt = now
		r.piles[pile.ID] = &pile
	}
	return r
}

// Start runs the heartbeat monitor until ctx is cancelled.
func (r *Registry) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.clock.After(r.checkInterval):
			r.sweep()
		}
	}
}

// sweep marks available piles with a stale heartbeat as offline.
// Occupied piles are left alone so an active session is never
// interrupted by a missed heartbeat.
func (r *Registry) sweep() {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pile := range r.piles {
		if pile.LastHeartbeat.IsZero() || pile.Status != models.PileAvailable {
			continue
		}
		if now.Sub(pile.LastHeartbeat) > r.timeout {
			pile.Status = models.PileOffline
			pile.UpdatedAt = now.UTC()
			r.logger.Warn("pile heartbeat timed out",
				zap.String("pile_id", pile.ID),
				zap.Time("last_heartbeat", pile.LastHeartbeat))
		}
	}
}

// PileInfo returns a snapshot of the pile.
func (r *Registry) PileInfo(id string) (models.Pile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pile, ok := r.piles[id]
	if !ok {
		return models.Pile{}, ErrPileNotFound
	}
	return *pile, nil
}

// SetStatus moves the pile to the given status.
func (r *Registry) SetStatus(id string, status models.PileStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pile, ok := r.piles[id]
	if !ok {
		return ErrPileNotFound
	}
	pile.Status = status
	pile.UpdatedAt = r.clock.Now().UTC()
	return nil
}

// Heartbeat records a heartbeat from the pile, bringing it back online
// if it had timed out.
func (r *Registry) Heartbeat(id string) (models.Pile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pile, ok := r.piles[id]
	if !ok {
		return models.Pile{}, ErrPileNotFound
	}
	now := r.clock.Now()
	pile.LastHeartbeat = now
	if pile.Status == models.PileOffline {
		pile.Status = models.PileAvailable
		r.logger.Info("pile back online", zap.String("pile_id", id))
	}
	pile.UpdatedAt = now.UTC()
	return *pile, nil
}

// List returns all piles sorted by id.
func (r *Registry) List() []models.Pile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Pile, 0, len(r.piles))
	for _, pile := range r.piles {
		out = append(out, *pile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListByStation returns the station's piles sorted by id.
func (r *Registry) ListByStation(stationID string) []models.Pile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Pile, 0, len(r.piles))
	for _, pile := range r.piles {
		if pile.StationID == stationID {
			out = append(out, *pile)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CountByStatus returns how many piles are in each status.
func (r *Registry) CountByStatus() map[models.PileStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.PileStatus]int, 3)
	for _, pile := range r.piles {
		counts[pile.Status]++
	}
	return counts
}
