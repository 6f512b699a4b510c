package api

import (
	"github.com/stakahara/shisaku/internal/initiative"
)

// InitiativeRequest is the payload for creating an initiative
type InitiativeRequest struct {
	Domain       string `json:"domain"`
	MeasureName  string `json:"measureName"`
	Detail       string `json:"detail"`
	Goal         string `json:"goal"`
	KPI          string `json:"kpi"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Department   string `json:"department"`
	ScheduleText string `json:"scheduleText"`
}

// InitiativeUpdateRequest is the payload for updating an initiative. Absent
// fields are left unchanged; isActive=false soft-deletes, true restores.
type InitiativeUpdateRequest struct {
	Domain       *string `json:"domain"`
	MeasureName  *string `json:"measureName"`
	IsActive     *bool   `json:"isActive"`
	Detail       *string `json:"detail"`
	Goal         *string `json:"goal"`
	KPI          *string `json:"kpi"`
	StartDate    *string `json:"startDate"`
	EndDate      *string `json:"endDate"`
	Department   *string `json:"department"`
	ScheduleText *string `json:"scheduleText"`
}

// ProgressUpdateRequest is the payload for correcting an existing progress
// log in place.
type ProgressUpdateRequest struct {
	LogID int64 `json:"logId"`
	initiative.ProgressLogInput
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Ready   bool     `json:"ready"`
	Reasons []string `json:"reasons,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse carries the complete field-to-message violation map
// for a rejected progress log payload.
type ValidationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}
