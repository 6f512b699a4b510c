package initiative

import "time"

// Maximum lengths for progress log text fields, counted in Unicode code points.
const (
	MaxProgressStatusLength     = 50
	MaxProgressEvaluationLength = 2000
	MaxNextActionLength         = 1000
)

// Initiative is a tracked organizational plan ("施策").
// Soft-deleted initiatives keep their record with IsActive=false.
type Initiative struct {
	ID           int64         `json:"id"`
	Domain       string        `json:"domain"`
	MeasureName  string        `json:"measureName"`
	IsActive     bool          `json:"isActive"`
	Detail       string        `json:"detail,omitempty"`
	Goal         string        `json:"goal,omitempty"`
	KPI          string        `json:"kpi,omitempty"`
	StartDate    string        `json:"startDate,omitempty"`
	EndDate      string        `json:"endDate,omitempty"`
	Department   string        `json:"department,omitempty"`
	ScheduleText string        `json:"scheduleText,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	ProgressLogs []ProgressLog `json:"progressLogs,omitempty"`
}

// ProgressLog is one quarterly status record for an initiative. Rows are
// immutable once written except for the IsLatest flag and the explicit
// correction path.
type ProgressLog struct {
	ID                 int64     `json:"id"`
	InitiativeID       int64     `json:"initiativeId"`
	FiscalYear         int       `json:"fiscalYear"`
	FiscalQuarter      int       `json:"fiscalQuarter"`
	ProgressStatus     string    `json:"progressStatus,omitempty"`
	ProgressEvaluation string    `json:"progressEvaluation,omitempty"`
	NextAction         string    `json:"nextAction,omitempty"`
	NextActionDueDate  string    `json:"nextActionDueDate,omitempty"`
	VersionNo          int       `json:"versionNo"`
	IsLatest           bool      `json:"isLatest"`
	CreatedAt          time.Time `json:"createdAt"`
}

// PeriodKey identifies one version group: all progress logs an initiative has
// recorded for a fiscal year/quarter. Store filters take the key as a unit so
// the three parts cannot drift apart at call sites.
type PeriodKey struct {
	InitiativeID  int64
	FiscalYear    int
	FiscalQuarter int
}

// Key returns the period group this log belongs to.
func (p ProgressLog) Key() PeriodKey {
	return PeriodKey{
		InitiativeID:  p.InitiativeID,
		FiscalYear:    p.FiscalYear,
		FiscalQuarter: p.FiscalQuarter,
	}
}
