package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/database"
	"go.uber.org/zap"
)

const statsCacheTTL = 10 * time.Second

// statsCache holds cached stats with expiry
type statsCache struct {
	mu        sync.RWMutex
	data      *database.Stats
	expiresAt time.Time
}

func (c *statsCache) get() (*database.Stats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *statsCache) set(data *database.Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
	c.expiresAt = time.Now().Add(statsCacheTTL)
}

func (c *statsCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
}

// StatsProvider reports store-wide counters.
type StatsProvider interface {
	Stats(ctx context.Context) (database.Stats, error)
}

// Probe checks one dependency.
type Probe func(ctx context.Context) error

// StatsHandler handles status and statistics endpoints
type StatsHandler struct {
	stats  StatsProvider
	probes map[string]Probe
	logger *zap.Logger
	cache  statsCache
}

// NewStatsHandler creates a new stats handler. Probes are run by Status.
func NewStatsHandler(stats StatsProvider, probes map[string]Probe, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, probes: probes, logger: logger}
}

// InvalidateCache clears the cached stats so the next request fetches fresh data
func (h *StatsHandler) InvalidateCache() {
	h.cache.invalidate()
}

// StatusResponse is the service status
type StatusResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	database.Stats
}

// Get returns enrollment and audit counters.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.load(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Status probes dependencies and reports counters. A failed probe turns the
// response into 503.
func (h *StatsHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Status: "ok", Components: make(map[string]string, len(h.probes))}
	for name, probe := range h.probes {
		ctx, cancel := context.WithTimeout(r.Context(), constants.StatusCheckTimeout)
		err := probe(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("status probe failed", zap.String("component", name), zap.Error(err))
			resp.Components[name] = "down"
			resp.Status = "degraded"
			continue
		}
		resp.Components[name] = "ok"
	}

	if stats, err := h.load(r.Context()); err != nil {
		h.logger.Warn("failed to load stats", zap.Error(err))
		resp.Status = "degraded"
	} else {
		resp.Stats = *stats
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

func (h *StatsHandler) load(ctx context.Context) (*database.Stats, error) {
	if cached, ok := h.cache.get(); ok {
		return cached, nil
	}
	stats, err := h.stats.Stats(ctx)
	if err != nil {
		return nil, err
	}
	h.cache.set(&stats)
	return &stats, nil
}
