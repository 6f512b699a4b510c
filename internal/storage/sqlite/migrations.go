package sqlite

// Schema defines the SQLite database schema
const Schema = `
-- Initiatives table
CREATE TABLE IF NOT EXISTS initiatives (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain TEXT NOT NULL DEFAULT '',
	measure_name TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	detail TEXT NOT NULL DEFAULT '',
	goal TEXT NOT NULL DEFAULT '',
	kpi TEXT NOT NULL DEFAULT '',
	start_date TEXT NOT NULL DEFAULT '',
	end_date TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT '',
	schedule_text TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_initiatives_active ON initiatives(is_active);
CREATE INDEX IF NOT EXISTS idx_initiatives_created_at ON initiatives(created_at DESC);

-- Progress logs table; one version group per (initiative, year, quarter)
CREATE TABLE IF NOT EXISTS progress_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	initiative_id INTEGER NOT NULL,
	fiscal_year INTEGER NOT NULL,
	fiscal_quarter INTEGER NOT NULL,
	progress_status TEXT NOT NULL DEFAULT '',
	progress_evaluation TEXT NOT NULL DEFAULT '',
	next_action TEXT NOT NULL DEFAULT '',
	next_action_due_date TEXT NOT NULL DEFAULT '',
	version_no INTEGER NOT NULL,
	is_latest BOOLEAN NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (initiative_id) REFERENCES initiatives(id)
);

CREATE INDEX IF NOT EXISTS idx_progress_period ON progress_logs(initiative_id, fiscal_year, fiscal_quarter);
CREATE INDEX IF NOT EXISTS idx_progress_latest ON progress_logs(initiative_id, is_latest);
`
