package storage

import (
	"github.com/stakahara/shisaku/internal/initiative"
)

// ProgressOrder selects the ordering of FindProgressLogs results.
type ProgressOrder int

const (
	// OrderVersionDesc orders by version number, newest version first.
	OrderVersionDesc ProgressOrder = iota
	// OrderPeriodDesc orders by fiscal year desc, fiscal quarter desc,
	// version desc. This is the listing order shown to callers.
	OrderPeriodDesc
)

// ProgressFilter narrows FindProgressLogs. Key takes precedence over
// InitiativeID when both are set; LatestOnly restricts to rows flagged
// latest. InitiativeID is a pointer because id 0 can arrive from a URL and
// must scope the query to that (nonexistent) initiative, not widen it to all.
type ProgressFilter struct {
	InitiativeID *int64
	Key          *initiative.PeriodKey
	LatestOnly   bool
}

// ProgressPatch carries the content fields the correction path may overwrite.
// Version number and latest flag are deliberately absent.
type ProgressPatch struct {
	FiscalYear         int
	FiscalQuarter      int
	ProgressStatus     string
	ProgressEvaluation string
	NextAction         string
	NextActionDueDate  string
}

// InitiativeFilter narrows ListInitiatives. Domain, Department and Name are
// substring matches, case-insensitive and width-folded. Status matches the
// initiative's latest progress status exactly. Deleted switches the listing
// to the soft-deleted view.
type InitiativeFilter struct {
	Domain     string
	Department string
	Name       string
	Status     string
	Deleted    bool
}

// InitiativePatch is a partial initiative update; nil fields are left
// unchanged. Setting IsActive false soft-deletes, true restores.
type InitiativePatch struct {
	Domain       *string
	MeasureName  *string
	IsActive     *bool
	Detail       *string
	Goal         *string
	KPI          *string
	StartDate    *string
	EndDate      *string
	Department   *string
	ScheduleText *string
}

// ProgressQuerier is the set of progress log operations available both on the
// store directly and on the scoped handle inside a transaction.
type ProgressQuerier interface {
	// FindProgressLogs returns logs matching the filter in the given order.
	FindProgressLogs(filter ProgressFilter, order ProgressOrder) ([]initiative.ProgressLog, error)

	// RetireLatest clears the latest flag on every row in the period group
	// currently flagged latest and returns how many rows changed. The update
	// is a blanket one on purpose: it tolerates a group that has drifted
	// into holding more than one latest row.
	RetireLatest(key initiative.PeriodKey) (int64, error)

	// CreateProgressLog inserts a fully specified row and returns it.
	CreateProgressLog(log initiative.ProgressLog) (*initiative.ProgressLog, error)

	// UpdateProgressLog overwrites a row's content fields and returns the
	// updated row, or nil when no such row exists. Version number and
	// latest flag are untouched.
	UpdateProgressLog(id int64, patch ProgressPatch) (*initiative.ProgressLog, error)

	// FindProgressLog returns the row with the given id, or nil when absent.
	FindProgressLog(id int64) (*initiative.ProgressLog, error)

	// InitiativeExists reports whether an initiative row exists.
	InitiativeExists(id int64) (bool, error)
}

// Store is the persistence contract the version manager and the API rely on.
type Store interface {
	ProgressQuerier

	// InTransaction runs fn against a transaction-scoped querier. The
	// transaction commits when fn returns nil and rolls back on any error,
	// so a caller never observes a partial write sequence.
	InTransaction(fn func(ProgressQuerier) error) error

	// CreateInitiative inserts a new initiative and returns it.
	CreateInitiative(rec initiative.Initiative) (*initiative.Initiative, error)

	// GetInitiative returns an initiative with its latest progress log per
	// period attached, or nil when absent.
	GetInitiative(id int64) (*initiative.Initiative, error)

	// UpdateInitiative applies a partial update and returns the updated
	// record, or nil when absent.
	UpdateInitiative(id int64, patch InitiativePatch) (*initiative.Initiative, error)

	// ListInitiatives returns initiatives matching the filter, newest first.
	ListInitiatives(filter InitiativeFilter) ([]initiative.Initiative, error)

	// Ping verifies the store is reachable.
	Ping() error

	// Close closes the underlying connection.
	Close() error
}
