// Package storeadmin is the SQLite-backed repository layer behind a
// standalone worker's persisted state: queue assignment, job cursor
// state, and an append-only topology patch log. It backs
// storeadmin.Client, an in-process manager.Client for workers that run
// without a separate manager process.
package storeadmin

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/errors"
	"github.com/khulnasoft/DataLineup/manager"
)

// Store wraps the queues/job_states/topology_patches tables created by
// db.Migrate.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store over an already-migrated connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateQueue inserts or replaces a queue's compiled definition,
// leaving its assignment untouched if the row already exists.
func (s *Store) CreateQueue(ctx context.Context, item manager.QueueItemWithState) error {
	itemJSON, err := json.Marshal(item)
	if err != nil {
		return errors.Wrapf(err, "marshal queue %q", item.Name)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO queues (name, enabled, item_json)
		VALUES (?, 1, ?)
		ON CONFLICT(name) DO UPDATE SET item_json = excluded.item_json, updated_at = CURRENT_TIMESTAMP
	`, item.Name, string(itemJSON))
	if err != nil {
		return errors.Wrapf(err, "create queue %q", item.Name)
	}
	return nil
}

// ListUnassignedBefore returns enabled queues with no assignment, or
// whose assignment is older than cutoff (a crashed worker's lease
// treated as abandoned and available for reclaim).
func (s *Store) ListUnassignedBefore(ctx context.Context, cutoff time.Time) ([]manager.QueueItemWithState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_json FROM queues
		WHERE enabled = 1 AND (assigned_to IS NULL OR assigned_at < ?)
	`, cutoff.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "list unassigned queues")
	}
	defer rows.Close()
	return scanQueueRows(rows)
}

// ListAssignedTo returns every enabled queue currently assigned to
// workerID.
func (s *Store) ListAssignedTo(ctx context.Context, workerID string) ([]manager.QueueItemWithState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_json FROM queues WHERE enabled = 1 AND assigned_to = ?
	`, workerID)
	if err != nil {
		return nil, errors.Wrapf(err, "list queues assigned to %q", workerID)
	}
	defer rows.Close()
	return scanQueueRows(rows)
}

// AssignQueues marks the named queues assigned to workerID as of at.
func (s *Store) AssignQueues(ctx context.Context, workerID string, names []string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin assign transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE queues SET assigned_to = ?, assigned_at = ? WHERE name = ?`)
	if err != nil {
		return errors.Wrap(err, "prepare assign statement")
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, workerID, at.UTC(), name); err != nil {
			return errors.Wrapf(err, "assign queue %q to %q", name, workerID)
		}
	}
	return errors.Wrap(tx.Commit(), "commit assign transaction")
}

func scanQueueRows(rows *sql.Rows) ([]manager.QueueItemWithState, error) {
	var items []manager.QueueItemWithState
	for rows.Next() {
		var itemJSON string
		if err := rows.Scan(&itemJSON); err != nil {
			return nil, errors.Wrap(err, "scan queue row")
		}
		var item manager.QueueItemWithState
		if err := json.Unmarshal([]byte(itemJSON), &item); err != nil {
			return nil, errors.Wrap(err, "unmarshal queue row")
		}
		items = append(items, item)
	}
	return items, errors.Wrap(rows.Err(), "iterate queue rows")
}

// CreateJob registers a job name with no cursor state, idempotently:
// a job already present keeps its existing row untouched.
func (s *Store) CreateJob(ctx context.Context, jobName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_states (job_name) VALUES (?)
		ON CONFLICT(job_name) DO NOTHING
	`, jobName)
	return errors.Wrapf(err, "create job %q", jobName)
}

// GetLastJob returns the job_name most recently updated, or ok=false
// if no job has ever reported state.
func (s *Store) GetLastJob(ctx context.Context) (jobName string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT job_name FROM job_states ORDER BY updated_at DESC, rowid DESC LIMIT 1`)
	if err := row.Scan(&jobName); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "get last job")
	}
	return jobName, true, nil
}

// PushJobStates upserts the cursor state for each named job.
func (s *Store) PushJobStates(ctx context.Context, states map[string]cursor.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin push states transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO job_states (job_name, cursor_json) VALUES (?, ?)
		ON CONFLICT(job_name) DO UPDATE SET cursor_json = excluded.cursor_json, updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return errors.Wrap(err, "prepare push states statement")
	}
	defer stmt.Close()

	for name, state := range states {
		stateJSON, err := json.Marshal(state)
		if err != nil {
			return errors.Wrapf(err, "marshal cursor state for %q", name)
		}
		if _, err := stmt.ExecContext(ctx, name, string(stateJSON)); err != nil {
			return errors.Wrapf(err, "push cursor state for %q", name)
		}
	}
	return errors.Wrap(tx.Commit(), "commit push states transaction")
}

// FetchCursorStates returns the persisted cursor state for each named
// job, omitting jobs with no recorded state.
func (s *Store) FetchCursorStates(ctx context.Context, jobNames []string) (map[string]cursor.State, error) {
	states := make(map[string]cursor.State, len(jobNames))
	stmt, err := s.db.PrepareContext(ctx, `SELECT cursor_json FROM job_states WHERE job_name = ?`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare fetch cursor states statement")
	}
	defer stmt.Close()

	for _, name := range jobNames {
		var stateJSON sql.NullString
		err := stmt.QueryRowContext(ctx, name).Scan(&stateJSON)
		if err == sql.ErrNoRows || !stateJSON.Valid {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "fetch cursor state for %q", name)
		}
		var state cursor.State
		if err := json.Unmarshal([]byte(stateJSON.String), &state); err != nil {
			return nil, errors.Wrapf(err, "unmarshal cursor state for %q", name)
		}
		states[name] = state
	}
	return states, nil
}

// RecordTopologyPatch appends one applied patch to the topology log.
func (s *Store) RecordTopologyPatch(ctx context.Context, kind, objectName string, patch []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topology_patches (kind, object_name, patch_json) VALUES (?, ?, ?)
	`, kind, objectName, string(patch))
	return errors.Wrapf(err, "record topology patch for %s %q", kind, objectName)
}
