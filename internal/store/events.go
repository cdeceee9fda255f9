package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const eventColumns = "id, experiment_id, stage_name, event_type, message, worker_id, created_at"

// AppendEvent records an orchestration event. Events are append-only; nothing
// updates or deletes them.
func (s *Store) AppendEvent(ctx context.Context, experimentID int64, stageName string, eventType EventType, message, workerID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO log_events (experiment_id, stage_name, event_type, message, worker_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(experimentID),
		nullableString(stageName),
		eventType,
		nullableString(message),
		nullableString(workerID),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append log event: %w", err)
	}
	return nil
}

// ListEvents returns the event trail for an experiment in insertion order.
// A zero experimentID returns events not tied to any experiment.
func (s *Store) ListEvents(ctx context.Context, experimentID int64, limit int) ([]*LogEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM log_events WHERE experiment_id = ? ORDER BY id`
	args := []any{experimentID}
	if experimentID == 0 {
		query = `SELECT ` + eventColumns + ` FROM log_events WHERE experiment_id IS NULL ORDER BY id`
		args = nil
	}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list log events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// RecentEvents returns the newest events across all experiments, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]*LogEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+eventColumns+` FROM log_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent log events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// CountEvents returns how many events of one type exist for an experiment.
func (s *Store) CountEvents(ctx context.Context, experimentID int64, eventType EventType) (int, error) {
	var count int
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM log_events WHERE experiment_id = ? AND event_type = ?`,
		experimentID,
		eventType,
	)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count log events: %w", err)
	}
	return count, nil
}

func collectEvents(rows *sql.Rows) ([]*LogEvent, error) {
	var events []*LogEvent
	for rows.Next() {
		var (
			id           int64
			experimentID sql.NullInt64
			stageName    sql.NullString
			eventType    string
			message      sql.NullString
			workerID     sql.NullString
			createdRaw   sql.NullString
		)
		if err := rows.Scan(&id, &experimentID, &stageName, &eventType, &message, &workerID, &createdRaw); err != nil {
			return nil, err
		}
		event := &LogEvent{
			ID:           id,
			ExperimentID: experimentID.Int64,
			StageName:    stageName.String,
			EventType:    EventType(eventType),
			Message:      message.String,
			WorkerID:     workerID.String,
		}
		if created, err := parseTimeString(createdRaw.String); err == nil {
			event.CreatedAt = created
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
