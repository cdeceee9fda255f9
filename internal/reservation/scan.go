package reservation

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const reservationSelect = `SELECT id, topic_key, description, category, worker_id, experiment_id,
       status, reserved_at, expires_at, renewed_at, released_at, embedding, fingerprint
  FROM topic_reservations`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*Reservation, error) {
	var (
		reservation  Reservation
		description  sql.NullString
		category     sql.NullString
		experimentID sql.NullInt64
		status       string
		reservedAt   string
		expiresAt    string
		renewedAt    sql.NullString
		releasedAt   sql.NullString
		embedding    sql.NullString
		fingerprint  sql.NullString
	)
	err := row.Scan(
		&reservation.ID,
		&reservation.TopicKey,
		&description,
		&category,
		&reservation.WorkerID,
		&experimentID,
		&status,
		&reservedAt,
		&expiresAt,
		&renewedAt,
		&releasedAt,
		&embedding,
		&fingerprint,
	)
	if err != nil {
		return nil, err
	}

	reservation.Description = description.String
	reservation.Category = category.String
	reservation.ExperimentID = experimentID.Int64
	reservation.Status = Status(status)
	reservation.Fingerprint = fingerprint.String

	if reservation.ReservedAt, err = parseTimeString(reservedAt); err != nil {
		return nil, fmt.Errorf("parse reserved_at: %w", err)
	}
	if reservation.ExpiresAt, err = parseTimeString(expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	if renewedAt.Valid {
		t, parseErr := parseTimeString(renewedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse renewed_at: %w", parseErr)
		}
		reservation.RenewedAt = &t
	}
	if releasedAt.Valid {
		t, parseErr := parseTimeString(releasedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse released_at: %w", parseErr)
		}
		reservation.ReleasedAt = &t
	}
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &reservation.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
	}

	return &reservation, nil
}

func collectReservations(rows *sql.Rows) ([]Reservation, error) {
	var reservations []Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, *reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return reservations, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
