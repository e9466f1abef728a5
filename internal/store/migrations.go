package store

import (
	"database/sql"
	"fmt"
)

// migrations are applied in order; the version of the last applied entry
// is recorded in schema_migrations. Never edit an existing entry, append.
var migrations = []string{
	// 1: extraction snapshot tables
	`
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		account_id  INTEGER NOT NULL,
		term_id     INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL DEFAULT 'running',
		error       TEXT NOT NULL DEFAULT '',
		courses     INTEGER NOT NULL DEFAULT 0,
		students    INTEGER NOT NULL DEFAULT 0,
		pages       INTEGER NOT NULL DEFAULT 0,
		api_cost    REAL NOT NULL DEFAULT 0,
		started_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS courses (
		id             INTEGER PRIMARY KEY,
		name           TEXT NOT NULL,
		course_code    TEXT NOT NULL DEFAULT '',
		workflow_state TEXT NOT NULL DEFAULT '',
		term_id        INTEGER NOT NULL DEFAULT 0,
		account_id     INTEGER NOT NULL DEFAULT 0,
		total_students INTEGER NOT NULL DEFAULT 0,
		syllabus       TEXT NOT NULL DEFAULT '',
		run_id         TEXT NOT NULL DEFAULT '',
		updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_courses_term ON courses(term_id);

	CREATE TABLE IF NOT EXISTS enrollments (
		id            INTEGER PRIMARY KEY,
		course_id     INTEGER NOT NULL,
		user_id       INTEGER NOT NULL,
		user_name     TEXT NOT NULL DEFAULT '',
		state         TEXT NOT NULL DEFAULT '',
		current_score REAL,
		final_score   REAL,
		current_grade TEXT NOT NULL DEFAULT '',
		final_grade   TEXT NOT NULL DEFAULT '',
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_enrollments_course ON enrollments(course_id);

	CREATE TABLE IF NOT EXISTS student_summaries (
		course_id      INTEGER NOT NULL,
		user_id        INTEGER NOT NULL,
		page_views     REAL NOT NULL DEFAULT 0,
		max_page_views REAL NOT NULL DEFAULT 0,
		participations REAL NOT NULL DEFAULT 0,
		max_participations REAL NOT NULL DEFAULT 0,
		tardy_missing  REAL NOT NULL DEFAULT 0,
		tardy_late     REAL NOT NULL DEFAULT 0,
		tardy_on_time  REAL NOT NULL DEFAULT 0,
		tardy_floating REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (course_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id             INTEGER PRIMARY KEY,
		course_id      INTEGER NOT NULL,
		assignment_id  INTEGER NOT NULL,
		user_id        INTEGER NOT NULL,
		score          REAL,
		late           INTEGER NOT NULL DEFAULT 0,
		missing        INTEGER NOT NULL DEFAULT 0,
		workflow_state TEXT NOT NULL DEFAULT '',
		submitted_at   DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_submissions_course_user ON submissions(course_id, user_id);
	`,

	// 2: derived score and evaluation tables
	`
	CREATE TABLE IF NOT EXISTS course_scores (
		course_id            INTEGER PRIMARY KEY,
		career               TEXT NOT NULL DEFAULT '',
		tier                 TEXT NOT NULL DEFAULT '',
		cps                  REAL NOT NULL DEFAULT 0,
		enrollment_component REAL NOT NULL DEFAULT 0,
		balance_component    REAL NOT NULL DEFAULT 0,
		coverage_component   REAL NOT NULL DEFAULT 0,
		variance_component   REAL NOT NULL DEFAULT 0,
		completeness_component REAL NOT NULL DEFAULT 0,
		scored_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS career_scores (
		career      TEXT PRIMARY KEY,
		score       REAL NOT NULL DEFAULT 0,
		mean_cps    REAL NOT NULL DEFAULT 0,
		coverage    REAL NOT NULL DEFAULT 0,
		courses     INTEGER NOT NULL DEFAULT 0,
		tier_tiny   INTEGER NOT NULL DEFAULT 0,
		tier_small  INTEGER NOT NULL DEFAULT 0,
		tier_medium INTEGER NOT NULL DEFAULT 0,
		tier_large  INTEGER NOT NULL DEFAULT 0,
		scored_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS model_evals (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id    TEXT NOT NULL DEFAULT '',
		model     TEXT NOT NULL,
		fold      INTEGER NOT NULL DEFAULT 0,
		accuracy  REAL NOT NULL DEFAULT 0,
		precision REAL NOT NULL DEFAULT 0,
		recall    REAL NOT NULL DEFAULT 0,
		f1        REAL NOT NULL DEFAULT 0,
		auc       REAL NOT NULL DEFAULT 0,
		mse       REAL NOT NULL DEFAULT 0,
		r2        REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_model_evals_run ON model_evals(run_id);
	`,

	// 3: persist the client's quota snapshot per run and the raw
	// coverage signal per course (career aggregation must not depend on
	// the weights in effect when it runs)
	`
	ALTER TABLE runs ADD COLUMN quota_remaining REAL NOT NULL DEFAULT 0;
	ALTER TABLE runs ADD COLUMN api_calls INTEGER NOT NULL DEFAULT 0;
	ALTER TABLE runs ADD COLUMN api_retries INTEGER NOT NULL DEFAULT 0;
	ALTER TABLE course_scores ADD COLUMN coverage REAL NOT NULL DEFAULT 0;
	`,
}

// migrate applies pending migrations in a transaction each.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		err := s.withTx(func(tx *sql.Tx) error {
			if _, err := tx.Exec(migrations[i]); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", version, err)
		}
	}
	return nil
}
