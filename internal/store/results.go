package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const resultColumns = "id, experiment_id, stage_name, stage_number, payload, worker_id, created_at"

// UpsertStageResult saves a stage's output, overwriting any previous result
// for the same (experiment, stage name) pair. This is the checkpoint write:
// re-running a completed stage replaces its row instead of duplicating it.
func (s *Store) UpsertStageResult(ctx context.Context, experimentID int64, stageName string, stageNumber int, payload, workerID string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO stage_results (experiment_id, stage_name, stage_number, payload, worker_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (experiment_id, stage_name)
         DO UPDATE SET stage_number = excluded.stage_number,
                       payload = excluded.payload,
                       worker_id = excluded.worker_id,
                       created_at = excluded.created_at`,
		experimentID,
		stageName,
		stageNumber,
		nullableString(payload),
		nullableString(workerID),
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert stage result: %w", err)
	}
	return nil
}

// GetStageResult fetches one stage's result for an experiment. Returns nil
// when the stage has not produced a result yet.
func (s *Store) GetStageResult(ctx context.Context, experimentID int64, stageName string) (*StageResult, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+resultColumns+` FROM stage_results WHERE experiment_id = ? AND stage_name = ?`,
		experimentID,
		stageName,
	)
	result, err := scanStageResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stage result: %w", err)
	}
	return result, nil
}

// ListStageResults returns all stage results for an experiment in stage order.
func (s *Store) ListStageResults(ctx context.Context, experimentID int64) ([]*StageResult, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+resultColumns+` FROM stage_results WHERE experiment_id = ? ORDER BY stage_number`,
		experimentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list stage results: %w", err)
	}
	defer rows.Close()

	var results []*StageResult
	for rows.Next() {
		result, err := scanStageResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanStageResult(scanner interface{ Scan(dest ...any) error }) (*StageResult, error) {
	var (
		id           int64
		experimentID int64
		stageName    string
		stageNumber  int
		payload      sql.NullString
		workerID     sql.NullString
		createdRaw   sql.NullString
	)

	if err := scanner.Scan(&id, &experimentID, &stageName, &stageNumber, &payload, &workerID, &createdRaw); err != nil {
		return nil, err
	}

	result := &StageResult{
		ID:           id,
		ExperimentID: experimentID,
		StageName:    stageName,
		StageNumber:  stageNumber,
		Payload:      payload.String,
		WorkerID:     workerID.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		result.CreatedAt = created
	}
	return result, nil
}
