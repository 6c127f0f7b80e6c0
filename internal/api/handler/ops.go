package handler

import (
	"net/http"
	"time"

	"github.com/ratheesh-17/airaware/internal/api/models"
	"github.com/ratheesh-17/airaware/internal/api/response"
	"github.com/ratheesh-17/airaware/internal/quota"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	guard     *quota.Guard
	providers []string
	critical  map[string]bool
}

// OpsHandlerConfig holds configuration for the ops handler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string
	Guard     *quota.Guard
	// Providers are the provider names shown on the quota endpoint.
	Providers []string
	// Critical marks which of those providers disable the service when
	// exhausted.
	Critical []string
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	critical := make(map[string]bool, len(cfg.Critical))
	for _, p := range cfg.Critical {
		critical[p] = true
	}

	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		guard:     cfg.Guard,
		providers: cfg.Providers,
		critical:  critical,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// QuotaStatus handles GET /v1/ops/quota - per-provider daily usage.
func (h *OpsHandler) QuotaStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := models.QuotaStatus{
		SystemEnabled: h.guard.SystemEnabled(ctx) == nil,
		Providers:     make([]models.ProviderQuota, 0, len(h.providers)),
		Time:          models.Timestamp(time.Now()),
	}

	for _, provider := range h.providers {
		snapshot, err := h.guard.Snapshot(ctx, provider)
		if err != nil {
			response.InternalError(w, r, "quota ledger unavailable")
			return
		}
		status.Providers = append(status.Providers, models.ProviderQuota{
			Provider:  provider,
			Used:      snapshot.Count,
			Limit:     snapshot.Limit,
			Remaining: snapshot.Remaining(),
			Critical:  h.critical[provider],
		})
	}

	response.JSON(w, r, http.StatusOK, status)
}
