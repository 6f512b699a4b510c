package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stakahara/shisaku/internal/initiative"
	"github.com/stakahara/shisaku/internal/storage"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same query code runs
// directly and inside transactions.
type dbtx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// querier implements storage.ProgressQuerier over a database handle.
type querier struct {
	db dbtx
}

// Store implements storage.Store using SQLite
type Store struct {
	querier
	db *sql.DB
}

// NewStore creates a new SQLite storage with the given database path
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// WAL keeps readers from blocking the single writer
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	// Run migrations
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{querier: querier{db: db}, db: db}, nil
}

// InTransaction runs fn against a transaction-scoped querier, committing when
// fn returns nil and rolling back otherwise.
func (s *Store) InTransaction(fn func(storage.ProgressQuerier) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&querier{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to roll back after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping verifies the database connection
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

const progressColumns = `id, initiative_id, fiscal_year, fiscal_quarter, progress_status,
	progress_evaluation, next_action, next_action_due_date, version_no, is_latest, created_at`

// FindProgressLogs retrieves progress logs matching the filter
func (q *querier) FindProgressLogs(filter storage.ProgressFilter, order storage.ProgressOrder) ([]initiative.ProgressLog, error) {
	query := "SELECT " + progressColumns + " FROM progress_logs WHERE 1=1"
	args := []interface{}{}

	if filter.Key != nil {
		query += " AND initiative_id = ? AND fiscal_year = ? AND fiscal_quarter = ?"
		args = append(args, filter.Key.InitiativeID, filter.Key.FiscalYear, filter.Key.FiscalQuarter)
	} else if filter.InitiativeID != nil {
		query += " AND initiative_id = ?"
		args = append(args, *filter.InitiativeID)
	}

	if filter.LatestOnly {
		query += " AND is_latest = 1"
	}

	switch order {
	case storage.OrderPeriodDesc:
		query += " ORDER BY fiscal_year DESC, fiscal_quarter DESC, version_no DESC"
	default:
		query += " ORDER BY version_no DESC"
	}

	rows, err := q.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress logs: %w", err)
	}
	defer rows.Close()

	var logs []initiative.ProgressLog
	for rows.Next() {
		log, err := scanProgressLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return logs, nil
}

// RetireLatest clears the latest flag on every currently latest row in the
// period group. Deliberately not limited to a single row: a group that has
// drifted into more than one latest row is healed by the same statement.
func (q *querier) RetireLatest(key initiative.PeriodKey) (int64, error) {
	result, err := q.db.Exec(`
		UPDATE progress_logs SET is_latest = 0
		WHERE initiative_id = ? AND fiscal_year = ? AND fiscal_quarter = ? AND is_latest = 1`,
		key.InitiativeID, key.FiscalYear, key.FiscalQuarter,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to retire latest flags: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count retired rows: %w", err)
	}
	return count, nil
}

// CreateProgressLog inserts a progress log row and returns it
func (q *querier) CreateProgressLog(log initiative.ProgressLog) (*initiative.ProgressLog, error) {
	result, err := q.db.Exec(`
		INSERT INTO progress_logs (
			initiative_id, fiscal_year, fiscal_quarter, progress_status,
			progress_evaluation, next_action, next_action_due_date, version_no, is_latest
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.InitiativeID,
		log.FiscalYear,
		log.FiscalQuarter,
		log.ProgressStatus,
		log.ProgressEvaluation,
		log.NextAction,
		log.NextActionDueDate,
		log.VersionNo,
		log.IsLatest,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get progress log id: %w", err)
	}

	created, err := q.FindProgressLog(id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("progress log %d missing after insert", id)
	}
	return created, nil
}

// UpdateProgressLog overwrites a row's content fields in place. Version
// number and latest flag are never touched here; the correction path must
// not disturb the group's version history.
func (q *querier) UpdateProgressLog(id int64, patch storage.ProgressPatch) (*initiative.ProgressLog, error) {
	result, err := q.db.Exec(`
		UPDATE progress_logs SET
			fiscal_year = ?,
			fiscal_quarter = ?,
			progress_status = ?,
			progress_evaluation = ?,
			next_action = ?,
			next_action_due_date = ?
		WHERE id = ?`,
		patch.FiscalYear,
		patch.FiscalQuarter,
		patch.ProgressStatus,
		patch.ProgressEvaluation,
		patch.NextAction,
		patch.NextActionDueDate,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update progress log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to count updated rows: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return q.FindProgressLog(id)
}

// FindProgressLog retrieves a progress log by id, or nil when absent
func (q *querier) FindProgressLog(id int64) (*initiative.ProgressLog, error) {
	row := q.db.QueryRow("SELECT "+progressColumns+" FROM progress_logs WHERE id = ?", id)

	log, err := scanProgressLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return log, nil
}

// InitiativeExists reports whether an initiative row exists
func (q *querier) InitiativeExists(id int64) (bool, error) {
	var one int
	err := q.db.QueryRow("SELECT 1 FROM initiatives WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check initiative: %w", err)
	}
	return true, nil
}

const initiativeColumns = `id, domain, measure_name, is_active, detail, goal, kpi,
	start_date, end_date, department, schedule_text, created_at, updated_at`

// CreateInitiative inserts an initiative and returns it
func (s *Store) CreateInitiative(rec initiative.Initiative) (*initiative.Initiative, error) {
	result, err := s.db.Exec(`
		INSERT INTO initiatives (
			domain, measure_name, is_active, detail, goal, kpi,
			start_date, end_date, department, schedule_text
		)
		VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Domain,
		rec.MeasureName,
		rec.Detail,
		rec.Goal,
		rec.KPI,
		rec.StartDate,
		rec.EndDate,
		rec.Department,
		rec.ScheduleText,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create initiative: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get initiative id: %w", err)
	}

	return s.findInitiative(id)
}

// GetInitiative retrieves an initiative with its latest progress log per
// period attached, or nil when absent
func (s *Store) GetInitiative(id int64) (*initiative.Initiative, error) {
	rec, err := s.findInitiative(id)
	if err != nil || rec == nil {
		return rec, err
	}

	logs, err := s.FindProgressLogs(storage.ProgressFilter{
		InitiativeID: &id,
		LatestOnly:   true,
	}, storage.OrderPeriodDesc)
	if err != nil {
		return nil, err
	}
	rec.ProgressLogs = logs

	return rec, nil
}

// UpdateInitiative applies a partial update and returns the updated record,
// or nil when absent
func (s *Store) UpdateInitiative(id int64, patch storage.InitiativePatch) (*initiative.Initiative, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []interface{}{}

	appendSet := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Domain != nil {
		appendSet("domain", *patch.Domain)
	}
	if patch.MeasureName != nil {
		appendSet("measure_name", *patch.MeasureName)
	}
	if patch.IsActive != nil {
		appendSet("is_active", *patch.IsActive)
	}
	if patch.Detail != nil {
		appendSet("detail", *patch.Detail)
	}
	if patch.Goal != nil {
		appendSet("goal", *patch.Goal)
	}
	if patch.KPI != nil {
		appendSet("kpi", *patch.KPI)
	}
	if patch.StartDate != nil {
		appendSet("start_date", *patch.StartDate)
	}
	if patch.EndDate != nil {
		appendSet("end_date", *patch.EndDate)
	}
	if patch.Department != nil {
		appendSet("department", *patch.Department)
	}
	if patch.ScheduleText != nil {
		appendSet("schedule_text", *patch.ScheduleText)
	}

	args = append(args, id)
	result, err := s.db.Exec("UPDATE initiatives SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update initiative: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to count updated rows: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return s.findInitiative(id)
}

// ListInitiatives retrieves initiatives matching the filter, newest first.
// The active/deleted view and the latest-status filter run in SQL; the
// substring filters are applied after width folding, which SQLite's LIKE
// cannot do for Japanese text.
func (s *Store) ListInitiatives(filter storage.InitiativeFilter) ([]initiative.Initiative, error) {
	query := "SELECT " + initiativeColumns + " FROM initiatives WHERE is_active = ?"
	args := []interface{}{!filter.Deleted}

	if filter.Status != "" {
		query += ` AND EXISTS (
			SELECT 1 FROM progress_logs p
			WHERE p.initiative_id = initiatives.id AND p.is_latest = 1 AND p.progress_status = ?
		)`
		args = append(args, filter.Status)
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query initiatives: %w", err)
	}
	defer rows.Close()

	var records []initiative.Initiative
	for rows.Next() {
		rec, err := scanInitiative(rows)
		if err != nil {
			return nil, err
		}
		if !initiative.ContainsFold(rec.Domain, filter.Domain) {
			continue
		}
		if !initiative.ContainsFold(rec.Department, filter.Department) {
			continue
		}
		if !initiative.ContainsFold(rec.MeasureName, filter.Name) {
			continue
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// findInitiative retrieves the bare initiative row without progress logs
func (s *Store) findInitiative(id int64) (*initiative.Initiative, error) {
	row := s.db.QueryRow("SELECT "+initiativeColumns+" FROM initiatives WHERE id = ?", id)

	rec, err := scanInitiative(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProgressLog(sc scanner) (*initiative.ProgressLog, error) {
	var log initiative.ProgressLog
	err := sc.Scan(
		&log.ID,
		&log.InitiativeID,
		&log.FiscalYear,
		&log.FiscalQuarter,
		&log.ProgressStatus,
		&log.ProgressEvaluation,
		&log.NextAction,
		&log.NextActionDueDate,
		&log.VersionNo,
		&log.IsLatest,
		&log.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan progress log: %w", err)
	}
	return &log, nil
}

func scanInitiative(sc scanner) (*initiative.Initiative, error) {
	var rec initiative.Initiative
	err := sc.Scan(
		&rec.ID,
		&rec.Domain,
		&rec.MeasureName,
		&rec.IsActive,
		&rec.Detail,
		&rec.Goal,
		&rec.KPI,
		&rec.StartDate,
		&rec.EndDate,
		&rec.Department,
		&rec.ScheduleText,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan initiative: %w", err)
	}
	return &rec, nil
}
