// Package progress implements the versioned progress log ledger. Each
// (initiative, fiscal year, fiscal quarter) group holds a gapless version
// sequence starting at 1 with exactly one row flagged latest; Submit grows
// the sequence inside a single store transaction and Correct edits a row in
// place without touching the sequence.
package progress

import (
	"errors"

	"github.com/stakahara/shisaku/internal/initiative"
	"github.com/stakahara/shisaku/internal/storage"
)

// ErrNotFound is returned when the target initiative or progress log does not
// exist, or when a log does not belong to the claimed initiative. Callers can
// distinguish it from store failures with errors.Is.
var ErrNotFound = errors.New("progress: not found")

// Manager runs the versioning and correction operations against a store.
// It holds no state and relies entirely on the store's transaction for
// concurrency safety.
type Manager struct {
	store storage.Store
}

// NewManager creates a manager backed by the given store
func NewManager(store storage.Store) *Manager {
	return &Manager{store: store}
}

// Submit records a new progress log version for the form's period. Within one
// transaction it reads the group's existing versions, retires every row still
// flagged latest, and inserts the next version flagged latest. Any failure
// rolls the whole sequence back, so the group never loses its latest row to a
// half-applied submission.
func (m *Manager) Submit(initiativeID int64, form initiative.ProgressLogForm) (*initiative.ProgressLog, error) {
	key := initiative.PeriodKey{
		InitiativeID:  initiativeID,
		FiscalYear:    form.FiscalYear.Value,
		FiscalQuarter: form.FiscalQuarter.Value,
	}

	var created *initiative.ProgressLog
	err := m.store.InTransaction(func(q storage.ProgressQuerier) error {
		exists, err := q.InitiativeExists(initiativeID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		existing, err := q.FindProgressLogs(storage.ProgressFilter{Key: &key}, storage.OrderVersionDesc)
		if err != nil {
			return err
		}

		versionNo := 1
		if len(existing) > 0 {
			versionNo = existing[0].VersionNo + 1
			if _, err := q.RetireLatest(key); err != nil {
				return err
			}
		}

		created, err = q.CreateProgressLog(initiative.ProgressLog{
			InitiativeID:       initiativeID,
			FiscalYear:         key.FiscalYear,
			FiscalQuarter:      key.FiscalQuarter,
			ProgressStatus:     form.ProgressStatus,
			ProgressEvaluation: form.ProgressEvaluation,
			NextAction:         form.NextAction,
			NextActionDueDate:  form.NextActionDueDate,
			VersionNo:          versionNo,
			IsLatest:           true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Correct overwrites an existing log's content fields without creating a new
// version. The log must belong to the given initiative. The period fields may
// change here without renumbering or collision checks; a correction can move
// a row into another group's sequence, which mirrors how corrections have
// always behaved.
func (m *Manager) Correct(logID, initiativeID int64, form initiative.ProgressLogForm) (*initiative.ProgressLog, error) {
	log, err := m.store.FindProgressLog(logID)
	if err != nil {
		return nil, err
	}
	if log == nil || log.InitiativeID != initiativeID {
		return nil, ErrNotFound
	}

	updated, err := m.store.UpdateProgressLog(logID, storage.ProgressPatch{
		FiscalYear:         form.FiscalYear.Value,
		FiscalQuarter:      form.FiscalQuarter.Value,
		ProgressStatus:     form.ProgressStatus,
		ProgressEvaluation: form.ProgressEvaluation,
		NextAction:         form.NextAction,
		NextActionDueDate:  form.NextActionDueDate,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// List returns every progress log of an initiative, ordered fiscal year desc,
// fiscal quarter desc, version desc.
func (m *Manager) List(initiativeID int64) ([]initiative.ProgressLog, error) {
	return m.store.FindProgressLogs(
		storage.ProgressFilter{InitiativeID: &initiativeID},
		storage.OrderPeriodDesc,
	)
}
