package model

import "time"

// CostRecord is an append-only entry for one paid external call.
type CostRecord struct {
	ID              string    `json:"id" bson:"_id"`
	Model           string    `json:"model" bson:"model"`
	Operation       string    `json:"operation" bson:"operation"`
	PromptTokens    int64     `json:"promptTokens" bson:"promptTokens"`
	OutputTokens    int64     `json:"outputTokens" bson:"outputTokens"`
	DurationSeconds float64   `json:"durationSeconds,omitempty" bson:"durationSeconds,omitempty"`
	EstimatedCost   float64   `json:"estimatedCost" bson:"estimatedCost"`
	PeriodStart     time.Time `json:"periodStart" bson:"periodStart"`
	PeriodEnd       time.Time `json:"periodEnd" bson:"periodEnd"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}

type CapabilityFlag struct {
	Key       string    `json:"key" bson:"_id"`
	Enabled   bool      `json:"enabled" bson:"enabled"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

const (
	AuditReasonEnforce = "enforce"
	AuditReasonReset   = "reset"
)

// CapabilityAudit records every write of a capability flag.
type CapabilityAudit struct {
	ID        string    `json:"id" bson:"_id"`
	Key       string    `json:"key" bson:"key"`
	Enabled   bool      `json:"enabled" bson:"enabled"`
	Total     float64   `json:"total" bson:"total"`
	Threshold float64   `json:"threshold" bson:"threshold"`
	Reason    string    `json:"reason" bson:"reason"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Capabilities is returned by GET /v1/capabilities
type Capabilities struct {
	PremiumModeEnabled bool `json:"premiumModeEnabled"`
}
