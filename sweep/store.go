package sweep

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/corrsweep/db"
	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/logger"
)

// RunRecorder is the write side of the store used by the invoker
type RunRecorder interface {
	CreateRun(run *Run) error
	RecordResult(runID string, res Result) error
	CompleteRun(run *Run) error
}

// Store persists runs and their invocations in SQLite
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewStore creates a run store on a migrated database
func NewStore(conn *sql.DB, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{db: conn, logger: logger}
}

const runColumns = `id, evaluator, interpreter, script_path, data_path, weights_path,
	status, parallel, total, failed, started_at, completed_at`

const resultColumns = `seq, corruption, severity, command, status, exit_code,
	stdout, stderr, error, started_at, duration_ms`

// CreateRun inserts a new run
func (s *Store) CreateRun(run *Run) error {
	_, err := s.db.Exec(`INSERT INTO sweep_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Evaluator,
		run.Interpreter,
		run.ScriptPath,
		run.DataPath,
		run.WeightsPath,
		run.Status,
		run.Parallel,
		run.Total,
		run.Failed,
		run.StartedAt,
		nullTime(run.CompletedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to create run %s", run.ID)
	}

	s.logger.Debugw("Run recorded", logger.FieldRunID, run.ID, logger.FieldTotalCount, run.Total)
	return nil
}

// RecordResult inserts one finished invocation
func (s *Store) RecordResult(runID string, res Result) error {
	_, err := s.db.Exec(`INSERT INTO sweep_invocations (run_id, `+resultColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		res.Seq,
		res.Corruption,
		res.Severity,
		res.Command,
		res.Status,
		res.ExitCode,
		res.Stdout,
		res.Stderr,
		res.Error,
		res.StartedAt,
		res.DurationMS,
	)
	if db.IsDatabaseClosed(err) {
		return errors.WithHint(
			errors.Wrapf(err, "failed to record invocation %d of run %s", res.Seq, runID),
			"the run database was closed; remaining results are only in the console output",
		)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to record invocation %d of run %s", res.Seq, runID)
	}

	s.logger.Debugw("Invocation recorded",
		logger.FieldRunID, runID,
		logger.FieldSeq, res.Seq,
		logger.FieldExitCode, res.ExitCode,
	)
	return nil
}

// CompleteRun stores the final status, failure count and completion time
func (s *Store) CompleteRun(run *Run) error {
	result, err := s.db.Exec(`UPDATE sweep_runs SET status = ?, failed = ?, completed_at = ? WHERE id = ?`,
		run.Status, run.Failed, nullTime(run.CompletedAt), run.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to complete run %s", run.ID)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}
	if n == 0 {
		return errors.NewNotFoundError("run %s", run.ID)
	}
	return nil
}

// ResolveRunID expands a unique ID prefix (as printed in logs) to the full run ID
func (s *Store) ResolveRunID(prefix string) (string, error) {
	if prefix == "" {
		return "", errors.WithHint(errors.NewInvalidRequestError("run ID is required"), "run 'corrsweep results ls' to list recorded runs")
	}

	// Literal prefix match: % and _ in the input are not wildcards
	rows, err := s.db.Query(`SELECT id FROM sweep_runs WHERE substr(id, 1, length(?)) = ? ORDER BY id LIMIT 2`,
		prefix, prefix)
	if err != nil {
		return "", errors.Wrap(err, "failed to look up run")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", errors.Wrap(err, "failed to scan run id")
		}
		if id == prefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", errors.Wrap(err, "error iterating runs")
	}

	switch len(ids) {
	case 0:
		return "", errors.WithHint(errors.NewNotFoundError("run %s", prefix), "run 'corrsweep results ls' to list recorded runs")
	case 1:
		return ids[0], nil
	default:
		return "", errors.WithHint(errors.NewInvalidRequestError("run ID prefix %q is ambiguous", prefix), "use more characters of the run ID")
	}
}

// GetRun returns a run with all of its results in sequence order
func (s *Store) GetRun(id string) (*Run, error) {
	fullID, err := s.ResolveRunID(id)
	if err != nil {
		return nil, err
	}

	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM sweep_runs WHERE id = ?`, fullID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("run %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get run")
	}

	run.Results, err = s.ListResults(fullID)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first, without results
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM sweep_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating runs")
	}
	return runs, nil
}

// ListResults returns a run's invocations in plan order
func (s *Store) ListResults(runID string) ([]Result, error) {
	rows, err := s.db.Query(`SELECT `+resultColumns+` FROM sweep_invocations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query results of run %s", runID)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.Seq,
			&r.Corruption,
			&r.Severity,
			&r.Command,
			&r.Status,
			&r.ExitCode,
			&r.Stdout,
			&r.Stderr,
			&r.Error,
			&r.StartedAt,
			&r.DurationMS,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan result")
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating results")
	}
	return results, nil
}

// DeleteRun removes a run; its invocations cascade
func (s *Store) DeleteRun(id string) error {
	fullID, err := s.ResolveRunID(id)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(`DELETE FROM sweep_runs WHERE id = ?`, fullID); err != nil {
		return errors.Wrapf(err, "failed to delete run %s", fullID)
	}

	s.logger.Infow("Run deleted", logger.FieldRunID, fullID)
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var completedAt sql.NullTime
	err := row.Scan(
		&run.ID,
		&run.Evaluator,
		&run.Interpreter,
		&run.ScriptPath,
		&run.DataPath,
		&run.WeightsPath,
		&run.Status,
		&run.Parallel,
		&run.Total,
		&run.Failed,
		&run.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
