package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const experimentColumns = "id, title, summary, status, current_step, worker_id, reviewer_id, review_notes, reviewed_at, created_at, updated_at"

// CreateExperiment inserts a new pending experiment for a candidate idea.
func (s *Store) CreateExperiment(ctx context.Context, title, summary, workerID string) (*Experiment, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO experiments (title, summary, status, current_step, worker_id, created_at, updated_at)
         VALUES (?, ?, ?, 0, ?, ?, ?)`,
		title,
		nullableString(summary),
		StatusPending,
		nullableString(workerID),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert experiment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetExperiment(ctx, id)
}

// GetExperiment fetches an experiment by identifier. Returns nil when absent.
func (s *Store) GetExperiment(ctx context.Context, id int64) (*Experiment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = ?`, id)
	exp, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get experiment: %w", err)
	}
	return exp, nil
}

// ListExperiments returns experiments filtered by status set (or all when no
// status is provided), ordered by creation time.
func (s *Store) ListExperiments(ctx context.Context, statuses ...Status) ([]*Experiment, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + experimentColumns + ` FROM experiments`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var experiments []*Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, err
		}
		experiments = append(experiments, exp)
	}
	return experiments, rows.Err()
}

// UpdateExperimentStatus persists a status transition. currentStep only ever
// increases; passing a smaller value leaves the stored checkpoint untouched.
func (s *Store) UpdateExperimentStatus(ctx context.Context, id int64, status Status, currentStep int) error {
	if _, ok := statusSet[status]; !ok {
		return fmt.Errorf("unknown experiment status %q", status)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE experiments
         SET status = ?, current_step = MAX(current_step, ?), updated_at = ?
         WHERE id = ?`,
		status,
		currentStep,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update experiment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("experiment %d not found", id)
	}
	return nil
}

// SetExperimentReview records a review decision on an awaiting_review
// experiment. Decision must be approved or rejected.
func (s *Store) SetExperimentReview(ctx context.Context, id int64, decision Status, reviewerID, notes string) error {
	if decision != StatusApproved && decision != StatusRejected {
		return fmt.Errorf("review decision must be %s or %s, got %q", StatusApproved, StatusRejected, decision)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE experiments
         SET status = ?, reviewer_id = ?, review_notes = ?, reviewed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		decision,
		nullableString(reviewerID),
		nullableString(notes),
		now,
		now,
		id,
		StatusAwaitingReview,
	)
	if err != nil {
		return fmt.Errorf("set experiment review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("experiment %d is not awaiting review", id)
	}
	return nil
}

// ArchiveExperiment moves a terminal or abandoned experiment to archived.
func (s *Store) ArchiveExperiment(ctx context.Context, id int64) error {
	return s.UpdateExperimentStatus(ctx, id, StatusArchived, 0)
}

// Stats returns a count of experiments grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM experiments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("experiment stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates experiment state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusRunning:
			health.Running += count
		case StatusAwaitingReview:
			health.AwaitingReview += count
		case StatusFailed:
			health.Failed += count
		case StatusCompleted:
			health.Completed += count
		}
	}
	return health, nil
}

func scanExperiment(scanner interface{ Scan(dest ...any) error }) (*Experiment, error) {
	var (
		id          int64
		title       string
		summary     sql.NullString
		statusStr   string
		currentStep int
		workerID    sql.NullString
		reviewerID  sql.NullString
		reviewNotes sql.NullString
		reviewedRaw sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&summary,
		&statusStr,
		&currentStep,
		&workerID,
		&reviewerID,
		&reviewNotes,
		&reviewedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	exp := &Experiment{
		ID:          id,
		Title:       title,
		Summary:     summary.String,
		Status:      Status(statusStr),
		CurrentStep: currentStep,
		WorkerID:    workerID.String,
		ReviewerID:  reviewerID.String,
		ReviewNotes: reviewNotes.String,
	}
	if reviewedRaw.Valid {
		if reviewed, err := parseTimeString(reviewedRaw.String); err == nil {
			exp.ReviewedAt = &reviewed
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		exp.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		exp.UpdatedAt = updated
	}
	return exp, nil
}
