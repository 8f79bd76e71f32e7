// internal/store/store.go
package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"foresight/internal/debate"
	"foresight/internal/forecast"
)

type Store struct {
	db *sql.DB
}

type Run struct {
	ID         string
	EventID    string
	EventTitle string
	Consensus  bool
	Rounds     int
	CreatedAt  time.Time
}

type ForecastRow struct {
	ID          int64
	RunID       string
	AgentName   string
	Outcome     string
	Probability float64
	Rationale   string
	KeyFacts    []forecast.Claim
	CreatedAt   time.Time
}

type TurnRow struct {
	ID        int64
	RunID     string
	Speaker   string
	Content   string
	Round     int
	Closing   bool
	Skipped   bool
	Reason    string
	CreatedAt time.Time
}

// Open opens the store at the default data directory.
func Open() (*Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(filepath.Join(dir, "foresight.db"))
}

// OpenAt opens the store at an explicit path, creating parent directories.
func OpenAt(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func dataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "foresight"), nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_title TEXT NOT NULL,
		consensus INTEGER NOT NULL DEFAULT 0,
		rounds INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS forecasts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		agent_name TEXT NOT NULL,
		outcome TEXT NOT NULL,
		probability REAL NOT NULL,
		rationale TEXT NOT NULL,
		key_facts TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_forecasts_run ON forecasts(run_id);

	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		speaker TEXT NOT NULL,
		content TEXT NOT NULL,
		round INTEGER NOT NULL,
		closing INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		reason TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_turns_run ON turns(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResult persists a completed run with its forecasts and transcript.
func (s *Store) SaveResult(result *debate.Result, rounds int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	consensus := 0
	if result.Consensus {
		consensus = 1
	}
	if _, err := tx.Exec(
		`INSERT INTO runs (id, event_id, event_title, consensus, rounds) VALUES (?, ?, ?, ?, ?)`,
		result.RunID, result.EventID, result.EventTitle, consensus, rounds,
	); err != nil {
		return err
	}

	for _, f := range result.Forecasts {
		facts, err := json.Marshal(f.Claims)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO forecasts (run_id, agent_name, outcome, probability, rationale, key_facts)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			result.RunID, f.AgentName, string(f.Outcome), f.Probability, f.Rationale, string(facts),
		); err != nil {
			return err
		}
	}

	for _, t := range result.Transcript {
		closing := 0
		if t.Closing {
			closing = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO turns (run_id, speaker, content, round, closing, skipped) VALUES (?, ?, ?, ?, ?, 0)`,
			result.RunID, t.Speaker, t.Text, t.Round, closing,
		); err != nil {
			return err
		}
	}

	for _, sk := range result.Skipped {
		closing := 0
		if sk.Closing {
			closing = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO turns (run_id, speaker, content, round, closing, skipped, reason) VALUES (?, ?, '', ?, ?, 1, ?)`,
			result.RunID, sk.Speaker, sk.Round, closing, sk.Reason,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, event_id, event_title, consensus, rounds, created_at FROM runs WHERE id = ?`, id,
	)

	var r Run
	var consensus int
	if err := row.Scan(&r.ID, &r.EventID, &r.EventTitle, &consensus, &r.Rounds, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Consensus = consensus != 0
	return &r, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, event_id, event_title, consensus, rounds, created_at FROM runs ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var consensus int
		if err := rows.Scan(&r.ID, &r.EventID, &r.EventTitle, &consensus, &r.Rounds, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Consensus = consensus != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetForecasts retrieves the locked forecasts for a run.
func (s *Store) GetForecasts(runID string) ([]ForecastRow, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, agent_name, outcome, probability, rationale, key_facts, created_at
		 FROM forecasts WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forecasts []ForecastRow
	for rows.Next() {
		var f ForecastRow
		var facts string
		if err := rows.Scan(&f.ID, &f.RunID, &f.AgentName, &f.Outcome, &f.Probability, &f.Rationale, &facts, &f.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(facts), &f.KeyFacts); err != nil {
			return nil, err
		}
		forecasts = append(forecasts, f)
	}
	return forecasts, rows.Err()
}

// GetTurns retrieves the full transcript for a run, skips included.
func (s *Store) GetTurns(runID string) ([]TurnRow, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, speaker, content, round, closing, skipped, reason, created_at
		 FROM turns WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []TurnRow
	for rows.Next() {
		var t TurnRow
		var closing, skipped int
		var reason sql.NullString
		if err := rows.Scan(&t.ID, &t.RunID, &t.Speaker, &t.Content, &t.Round, &closing, &skipped, &reason, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Closing = closing != 0
		t.Skipped = skipped != 0
		t.Reason = reason.String
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
