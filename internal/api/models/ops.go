package models

// Health is the liveness/readiness response body.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// QuotaStatus reports per-provider daily quota usage.
type QuotaStatus struct {
	SystemEnabled bool            `json:"systemEnabled"`
	Providers     []ProviderQuota `json:"providers"`
	Time          Timestamp       `json:"time"`
}

// ProviderQuota is one provider's ledger row for today.
type ProviderQuota struct {
	Provider  string `json:"provider"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Critical  bool   `json:"critical"`
}
