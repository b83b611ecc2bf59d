package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultRunLimit = 50

// Store is the sqlite-backed registry and result store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath. ":memory:" is
// accepted for tests.
func Open(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("store: empty db path")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("store: nil db")
	}

	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS model (
			codename TEXT PRIMARY KEY,
			displayname TEXT NOT NULL,
			backend TEXT NOT NULL,
			identifier TEXT NOT NULL,
			filesize_mb INTEGER NOT NULL DEFAULT 0,
			license_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS benchmark (
			codename TEXT PRIMARY KEY,
			displayname TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			score_multiplier INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS question (
			question_id TEXT PRIMARY KEY,
			benchmark_name TEXT NOT NULL REFERENCES benchmark(codename),
			question_info_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_question_benchmark ON question(benchmark_name)`,
		`CREATE TABLE IF NOT EXISTS run (
			run_id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_ts INTEGER NOT NULL,
			model_name TEXT NOT NULL REFERENCES model(codename),
			benchmark_name TEXT NOT NULL REFERENCES benchmark(codename),
			normed_score INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_benchmark ON run(benchmark_name)`,
		`CREATE INDEX IF NOT EXISTS idx_run_model_benchmark ON run(model_name, benchmark_name)`,
		`CREATE TABLE IF NOT EXISTS run_detail (
			run_id INTEGER NOT NULL REFERENCES run(run_id),
			question_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			eval_msec INTEGER NOT NULL DEFAULT 0,
			debug_json TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, question_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InsertModel registers a model, replacing any prior row with the same
// codename.
func (s *Store) InsertModel(ctx context.Context, m *Model) error {
	if s == nil || s.db == nil {
		return errors.New("store: nil store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if m == nil {
		return errors.New("store: nil model")
	}

	codename := strings.TrimSpace(m.Codename)
	identifier := strings.TrimSpace(m.Identifier)
	backend := strings.ToLower(strings.TrimSpace(m.Backend))
	if codename == "" || identifier == "" {
		return errors.New("store: missing model codename/identifier")
	}
	if backend != "local" && backend != "remote" {
		return fmt.Errorf("store: model %q has invalid backend %q", codename, m.Backend)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO model (
			codename, displayname, backend, identifier, filesize_mb, license_name
		) VALUES (?, ?, ?, ?, ?, ?)
	`, codename, strings.TrimSpace(m.DisplayName), backend, identifier, m.FilesizeMB, strings.TrimSpace(m.License))
	if err != nil {
		return fmt.Errorf("store: insert model %q: %w", codename, err)
	}
	return nil
}

// GetModelByCodename fetches one model row. sql.ErrNoRows is wrapped, so
// errors.Is(err, sql.ErrNoRows) distinguishes missing from broken.
func (s *Store) GetModelByCodename(ctx context.Context, codename string) (*Model, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	codename = strings.TrimSpace(codename)
	if codename == "" {
		return nil, errors.New("store: empty codename")
	}

	var m Model
	err := s.db.QueryRowContext(ctx, `
		SELECT codename, displayname, backend, identifier, filesize_mb, license_name
		FROM model WHERE codename = ?
	`, codename).Scan(&m.Codename, &m.DisplayName, &m.Backend, &m.Identifier, &m.FilesizeMB, &m.License)
	if err != nil {
		return nil, fmt.Errorf("store: get model %q: %w", codename, err)
	}
	return &m, nil
}

func (s *Store) ListModels(ctx context.Context) ([]Model, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT codename, displayname, backend, identifier, filesize_mb, license_name
		FROM model ORDER BY codename
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list models: %w", err)
	}
	defer rows.Close()

	var out []Model
	for rows.Next() {
		var m Model
		if err := rows.Scan(&m.Codename, &m.DisplayName, &m.Backend, &m.Identifier, &m.FilesizeMB, &m.License); err != nil {
			return nil, fmt.Errorf("store: scan model: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan models: %w", err)
	}
	return out, nil
}

// InsertBenchmark registers a benchmark, replacing any prior row.
func (s *Store) InsertBenchmark(ctx context.Context, b *Benchmark) error {
	if s == nil || s.db == nil {
		return errors.New("store: nil store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if b == nil {
		return errors.New("store: nil benchmark")
	}

	codename := strings.TrimSpace(b.Codename)
	if codename == "" {
		return errors.New("store: missing benchmark codename")
	}
	multiplier := b.ScoreMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO benchmark (codename, displayname, description, score_multiplier)
		VALUES (?, ?, ?, ?)
	`, codename, strings.TrimSpace(b.DisplayName), strings.TrimSpace(b.Description), multiplier)
	if err != nil {
		return fmt.Errorf("store: insert benchmark %q: %w", codename, err)
	}
	return nil
}

func (s *Store) GetBenchmark(ctx context.Context, codename string) (*Benchmark, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	codename = strings.TrimSpace(codename)
	if codename == "" {
		return nil, errors.New("store: empty codename")
	}

	var b Benchmark
	err := s.db.QueryRowContext(ctx, `
		SELECT codename, displayname, description, score_multiplier
		FROM benchmark WHERE codename = ?
	`, codename).Scan(&b.Codename, &b.DisplayName, &b.Description, &b.ScoreMultiplier)
	if err != nil {
		return nil, fmt.Errorf("store: get benchmark %q: %w", codename, err)
	}
	return &b, nil
}

func (s *Store) ListBenchmarks(ctx context.Context) ([]Benchmark, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT codename, displayname, description, score_multiplier
		FROM benchmark ORDER BY codename
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list benchmarks: %w", err)
	}
	defer rows.Close()

	var out []Benchmark
	for rows.Next() {
		var b Benchmark
		if err := rows.Scan(&b.Codename, &b.DisplayName, &b.Description, &b.ScoreMultiplier); err != nil {
			return nil, fmt.Errorf("store: scan benchmark: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan benchmarks: %w", err)
	}
	return out, nil
}

// InsertQuestion stores one question, replacing any prior row with the
// same id.
func (s *Store) InsertQuestion(ctx context.Context, q *Question) error {
	if s == nil || s.db == nil {
		return errors.New("store: nil store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if q == nil {
		return errors.New("store: nil question")
	}

	id := strings.TrimSpace(q.QuestionID)
	benchmark := strings.TrimSpace(q.Benchmark)
	if id == "" || benchmark == "" {
		return errors.New("store: missing question id/benchmark")
	}
	if strings.TrimSpace(q.InfoJSON) == "" {
		return fmt.Errorf("store: question %q has empty info", id)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO question (question_id, benchmark_name, question_info_json)
		VALUES (?, ?, ?)
	`, id, benchmark, q.InfoJSON)
	if err != nil {
		return fmt.Errorf("store: insert question %q: %w", id, err)
	}
	return nil
}

// LoadQuestions returns a benchmark's questions ordered by id, so every
// run walks them in the same order.
func (s *Store) LoadQuestions(ctx context.Context, benchmark string) ([]Question, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	benchmark = strings.TrimSpace(benchmark)
	if benchmark == "" {
		return nil, errors.New("store: empty benchmark")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id, benchmark_name, question_info_json
		FROM question WHERE benchmark_name = ? ORDER BY question_id
	`, benchmark)
	if err != nil {
		return nil, fmt.Errorf("store: load questions for %q: %w", benchmark, err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.QuestionID, &q.Benchmark, &q.InfoJSON); err != nil {
			return nil, fmt.Errorf("store: scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan questions: %w", err)
	}
	return out, nil
}

// InsertRun writes the run row and all its details in one transaction and
// returns the generated run id. Nothing is visible unless everything
// commits.
func (s *Store) InsertRun(ctx context.Context, model, benchmark string, score int, details []RunDetail) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store: nil store")
	}
	if ctx == nil {
		return 0, errors.New("store: nil context")
	}
	model = strings.TrimSpace(model)
	benchmark = strings.TrimSpace(benchmark)
	if model == "" || benchmark == "" {
		return 0, errors.New("store: missing model/benchmark")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO run (run_ts, model_name, benchmark_name, normed_score)
		VALUES (?, ?, ?, ?)
	`, time.Now().UTC().UnixMilli(), model, benchmark, score)
	if err != nil {
		return 0, fmt.Errorf("store: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_detail (run_id, question_id, score, eval_msec, debug_json)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare detail insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range details {
		if _, err := stmt.ExecContext(ctx, runID, d.QuestionID, d.Score, d.EvalMsec, d.DebugJSON); err != nil {
			return 0, fmt.Errorf("store: insert detail %q: %w", d.QuestionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit run: %w", err)
	}
	return runID, nil
}

// GetRun returns one run row with its details.
func (s *Store) GetRun(ctx context.Context, runID int64) (*Run, []RunDetail, error) {
	if s == nil || s.db == nil {
		return nil, nil, errors.New("store: nil store")
	}
	if ctx == nil {
		return nil, nil, errors.New("store: nil context")
	}

	var r Run
	var ts int64
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, run_ts, model_name, benchmark_name, normed_score
		FROM run WHERE run_id = ?
	`, runID).Scan(&r.RunID, &ts, &r.Model, &r.Benchmark, &r.Score)
	if err != nil {
		return nil, nil, fmt.Errorf("store: get run %d: %w", runID, err)
	}
	r.RunTS = time.UnixMilli(ts).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id, score, eval_msec, debug_json
		FROM run_detail WHERE run_id = ? ORDER BY question_id
	`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("store: get run %d details: %w", runID, err)
	}
	defer rows.Close()

	var details []RunDetail
	for rows.Next() {
		var d RunDetail
		if err := rows.Scan(&d.QuestionID, &d.Score, &d.EvalMsec, &d.DebugJSON); err != nil {
			return nil, nil, fmt.Errorf("store: scan detail: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("store: scan details: %w", err)
	}

	return &r, details, nil
}

// ListRuns returns runs newest first, optionally filtered by model and
// benchmark.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	query := `
		SELECT run_id, run_ts, model_name, benchmark_name, normed_score
		FROM run WHERE 1=1`
	args := make([]any, 0, 3)
	if v := strings.TrimSpace(filter.Model); v != "" {
		query += " AND model_name = ?"
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.Benchmark); v != "" {
		query += " AND benchmark_name = ?"
		args = append(args, v)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRunLimit
	}
	query += " ORDER BY run_ts DESC, run_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var ts int64
		if err := rows.Scan(&r.RunID, &ts, &r.Model, &r.Benchmark, &r.Score); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.RunTS = time.UnixMilli(ts).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan runs: %w", err)
	}
	return out, nil
}

// Leaderboard returns each model's best score on a benchmark, highest
// first. Ties break toward the earlier run.
func (s *Store) Leaderboard(ctx context.Context, benchmark string, limit int) ([]LeaderboardEntry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	benchmark = strings.TrimSpace(benchmark)
	if benchmark == "" {
		return nil, errors.New("store: empty benchmark")
	}
	if limit <= 0 {
		limit = defaultRunLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT model_name, benchmark_name, normed_score, run_id, run_ts
		FROM run
		WHERE benchmark_name = ?
		ORDER BY normed_score DESC, run_ts ASC, run_id ASC
	`, benchmark)
	if err != nil {
		return nil, fmt.Errorf("store: query leaderboard: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		var ts int64
		if err := rows.Scan(&e.Model, &e.Benchmark, &e.Score, &e.RunID, &ts); err != nil {
			return nil, fmt.Errorf("store: scan leaderboard entry: %w", err)
		}
		if _, ok := seen[e.Model]; ok {
			continue
		}
		seen[e.Model] = struct{}{}
		e.RunTS = time.UnixMilli(ts).UTC()
		out = append(out, e)
		if len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan leaderboard: %w", err)
	}
	return out, nil
}
