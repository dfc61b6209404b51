package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-verify/internal/config"
	"github.com/kozaktomas/face-verify/internal/quality"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse exposes the pipeline settings clients need to interpret results
type ConfigResponse struct {
	Threshold        float64          `json:"threshold"`
	QualityEnabled   bool             `json:"quality_enabled"`
	Profiles         quality.Profiles `json:"profiles"`
	VotingWindow     int              `json:"voting_window"`
	VotingMinVotes   int              `json:"voting_min_votes"`
	SessionTTLSecs   int              `json:"session_ttl_seconds"`
	RateLimitEnabled bool             `json:"rate_limit_enabled"`
}

// Get returns the public configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Threshold:        h.config.Matching.Threshold,
		QualityEnabled:   h.config.Quality.Enabled,
		Profiles:         h.config.Quality.Profiles,
		VotingWindow:     h.config.Voting.Window,
		VotingMinVotes:   h.config.Voting.MinVotes,
		SessionTTLSecs:   int(h.config.Voting.SessionTTL.Seconds()),
		RateLimitEnabled: h.config.Web.RateLimitRPS > 0,
	})
}
