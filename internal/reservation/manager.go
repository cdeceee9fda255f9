package reservation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"verdandi/internal/logging"
	"verdandi/internal/store"
	"verdandi/internal/textutil"
	"verdandi/internal/vectormem"
)

// Manager coordinates topic claims across workers sharing one database.
// Claims are made atomic by taking SQLite's reserved lock up front, so two
// workers racing for the same topic key cannot both succeed.
type Manager struct {
	db       *sql.DB
	memory   vectormem.Memory
	logger   *slog.Logger
	ttlHours int
}

// NewManager builds a manager over the store's database. A nil memory falls
// back to local similarity scans; ttlHours of zero uses DefaultTTLHours.
func NewManager(st *store.Store, memory vectormem.Memory, logger *slog.Logger, ttlHours int) *Manager {
	if memory == nil {
		memory = vectormem.Noop{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if ttlHours <= 0 {
		ttlHours = DefaultTTLHours
	}
	return &Manager{
		db:       st.DB(),
		memory:   memory,
		logger:   logging.NewComponentLogger(logger, "reservation"),
		ttlHours: ttlHours,
	}
}

// TryReserve attempts to claim a topic key for a worker. It returns true when
// the claim was recorded and false when another worker holds an active
// reservation for the same key. Stale reservations are expired inside the
// same transaction so a lapsed claim never blocks a new one.
func (m *Manager) TryReserve(ctx context.Context, claim Claim) (bool, error) {
	if claim.WorkerID == "" || claim.TopicKey == "" {
		return false, errors.New("reservation claim requires worker id and topic key")
	}
	ttl := claim.TTLHours
	if ttl <= 0 {
		ttl = m.ttlHours
	}

	embeddingJSON, err := encodeEmbedding(claim.Embedding)
	if err != nil {
		return false, fmt.Errorf("encode embedding: %w", err)
	}

	conn, err := m.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	// BEGIN IMMEDIATE takes the write lock before any reads, making the
	// expire/check/insert sequence a single atomic claim.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return false, fmt.Errorf("begin claim transaction: %w", err)
	}

	now := time.Now().UTC()
	reserved, err := m.claimLocked(ctx, conn, claim, now, ttl, embeddingJSON)
	if err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		return false, err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return false, fmt.Errorf("commit claim transaction: %w", err)
	}

	if reserved {
		m.logger.Info("topic reserved",
			logging.String("topic_key", claim.TopicKey),
			logging.String(logging.FieldWorkerID, claim.WorkerID),
			logging.Int("ttl_hours", ttl))
	} else {
		m.logger.Debug("topic already reserved",
			logging.String("topic_key", claim.TopicKey),
			logging.String(logging.FieldWorkerID, claim.WorkerID))
	}
	return reserved, nil
}

func (m *Manager) claimLocked(ctx context.Context, conn *sql.Conn, claim Claim, now time.Time, ttl int, embeddingJSON any) (bool, error) {
	nowText := now.Format(time.RFC3339Nano)
	if _, err := conn.ExecContext(ctx,
		`UPDATE topic_reservations SET status = 'expired' WHERE status = 'active' AND expires_at < ?`,
		nowText); err != nil {
		return false, fmt.Errorf("expire stale reservations: %w", err)
	}

	var existing int64
	err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM topic_reservations WHERE topic_key = ? AND status = 'active'`,
		claim.TopicKey).Scan(&existing)
	if err != nil {
		return false, fmt.Errorf("check active reservation: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	expires := now.Add(time.Duration(ttl) * time.Hour).Format(time.RFC3339Nano)
	_, err = conn.ExecContext(ctx,
		`INSERT INTO topic_reservations
            (topic_key, description, category, worker_id, experiment_id, status, reserved_at, expires_at, embedding, fingerprint)
         VALUES (?, ?, ?, ?, ?, 'active', ?, ?, ?, ?)`,
		claim.TopicKey,
		nullableString(claim.Description),
		nullableString(claim.Category),
		claim.WorkerID,
		nullableID(claim.ExperimentID),
		nowText,
		expires,
		embeddingJSON,
		nullableString(claim.Fingerprint))
	if err != nil {
		return false, fmt.Errorf("insert reservation: %w", err)
	}
	return true, nil
}

// Release ends a worker's active claim on a topic. With completed true the
// reservation is marked completed so the topic stays off limits for future
// discovery; otherwise it is released and the key becomes claimable again.
// Only the holding worker's active row is touched.
func (m *Manager) Release(ctx context.Context, workerID, topicKey string, completed bool) (bool, error) {
	status := StatusReleased
	if completed {
		status = StatusCompleted
	}
	result, err := m.db.ExecContext(ctx,
		`UPDATE topic_reservations SET status = ?, released_at = ?
         WHERE topic_key = ? AND worker_id = ? AND status = 'active'`,
		string(status), time.Now().UTC().Format(time.RFC3339Nano), topicKey, workerID)
	if err != nil {
		return false, fmt.Errorf("release reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("release reservation: %w", err)
	}
	if affected == 1 {
		m.logger.Info("topic released",
			logging.String("topic_key", topicKey),
			logging.String(logging.FieldWorkerID, workerID),
			logging.String("status", string(status)))
	}
	return affected == 1, nil
}

// Renew extends the TTL of a worker's active reservation. It is the
// heartbeat: a worker that stops renewing loses the claim once the TTL
// lapses. Returns false if no matching active reservation exists.
func (m *Manager) Renew(ctx context.Context, workerID, topicKey string, ttlHours int) (bool, error) {
	if ttlHours <= 0 {
		ttlHours = m.ttlHours
	}
	now := time.Now().UTC()
	result, err := m.db.ExecContext(ctx,
		`UPDATE topic_reservations SET expires_at = ?, renewed_at = ?
         WHERE topic_key = ? AND worker_id = ? AND status = 'active'`,
		now.Add(time.Duration(ttlHours)*time.Hour).Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		topicKey, workerID)
	if err != nil {
		return false, fmt.Errorf("renew reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("renew reservation: %w", err)
	}
	return affected == 1, nil
}

// ExpireStale marks every active reservation past its expiry as expired and
// returns the number of rows transitioned.
func (m *Manager) ExpireStale(ctx context.Context) (int64, error) {
	result, err := m.db.ExecContext(ctx,
		`UPDATE topic_reservations SET status = 'expired' WHERE status = 'active' AND expires_at < ?`,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("expire stale reservations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire stale reservations: %w", err)
	}
	if affected > 0 {
		m.logger.Info("expired stale reservations", logging.Int64("count", affected))
	}
	return affected, nil
}

// Get returns the active reservation for a topic key, or nil when the key is
// unclaimed.
func (m *Manager) Get(ctx context.Context, topicKey string) (*Reservation, error) {
	row := m.db.QueryRowContext(ctx,
		reservationSelect+` WHERE topic_key = ? AND status = 'active'`, topicKey)
	reservation, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return reservation, nil
}

// FindSimilarByFingerprint scans reservations for keyword fingerprints whose
// Jaccard similarity meets the threshold, most similar first. Statuses limits
// the scan; empty means active only.
func (m *Manager) FindSimilarByFingerprint(ctx context.Context, fingerprint string, threshold float64, statuses ...Status) ([]Match, error) {
	if fingerprint == "" {
		return nil, nil
	}
	rows, err := m.listByStatuses(ctx, statuses)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, reservation := range rows {
		if reservation.Fingerprint == "" {
			continue
		}
		similarity := textutil.JaccardSimilarity(fingerprint, reservation.Fingerprint)
		if similarity >= threshold {
			matches = append(matches, Match{Reservation: reservation, Similarity: similarity})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	return matches, nil
}

// FindSimilarByEmbedding finds reservations whose stored embeddings are close
// to the probe vector. The vector memory service answers when reachable;
// otherwise the scan runs locally over embeddings persisted with each claim.
func (m *Manager) FindSimilarByEmbedding(ctx context.Context, embedding []float64, threshold float64, statuses ...Status) ([]Match, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if len(statuses) == 0 {
		statuses = []Status{StatusActive}
	}

	if m.memory.IsAvailable(ctx) {
		filter := make([]string, 0, len(statuses))
		for _, status := range statuses {
			filter = append(filter, string(status))
		}
		remote := m.memory.FindSimilar(ctx, embedding, threshold, 10, filter)
		matches := make([]Match, 0, len(remote))
		for _, hit := range remote {
			matches = append(matches, Match{
				Reservation: Reservation{TopicKey: hit.TopicKey, Description: hit.Description},
				Similarity:  hit.Similarity,
			})
		}
		return matches, nil
	}

	rows, err := m.listByStatuses(ctx, statuses)
	if err != nil {
		return nil, err
	}
	var matches []Match
	for _, reservation := range rows {
		if len(reservation.Embedding) == 0 {
			continue
		}
		similarity := textutil.CosineSimilarity(embedding, reservation.Embedding)
		if similarity >= threshold {
			matches = append(matches, Match{Reservation: reservation, Similarity: similarity})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	return matches, nil
}

// ComputeNoveltyScore rates how novel a topic embedding is against prior
// claims, from 0 (duplicate) to 1 (unseen). An empty vector or an empty
// corpus scores 1.
func (m *Manager) ComputeNoveltyScore(ctx context.Context, embedding []float64) float64 {
	if len(embedding) == 0 {
		return 1.0
	}
	statuses := []Status{StatusActive, StatusCompleted}
	if m.memory.IsAvailable(ctx) {
		filter := []string{string(StatusActive), string(StatusCompleted)}
		return m.memory.ComputeNovelty(ctx, embedding, filter)
	}

	rows, err := m.listByStatuses(ctx, statuses)
	if err != nil {
		m.logger.Warn("novelty fallback scan failed", logging.Error(err))
		return 1.0
	}
	best := 0.0
	for _, reservation := range rows {
		if len(reservation.Embedding) == 0 {
			continue
		}
		if similarity := textutil.CosineSimilarity(embedding, reservation.Embedding); similarity > best {
			best = similarity
		}
	}
	novelty := 1.0 - best
	if novelty < 0 {
		novelty = 0
	}
	if novelty > 1 {
		novelty = 1
	}
	return novelty
}

// ListActive returns active reservations in claim order.
func (m *Manager) ListActive(ctx context.Context) ([]Reservation, error) {
	rows, err := m.db.QueryContext(ctx,
		reservationSelect+` WHERE status = 'active' ORDER BY reserved_at`)
	if err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ListAll returns every reservation regardless of status, oldest first.
func (m *Manager) ListAll(ctx context.Context) ([]Reservation, error) {
	rows, err := m.db.QueryContext(ctx, reservationSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (m *Manager) listByStatuses(ctx context.Context, statuses []Status) ([]Reservation, error) {
	if len(statuses) == 0 {
		statuses = []Status{StatusActive}
	}
	placeholders := make([]byte, 0, len(statuses)*2)
	args := make([]any, 0, len(statuses))
	for i, status := range statuses {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, string(status))
	}
	rows, err := m.db.QueryContext(ctx,
		reservationSelect+` WHERE status IN (`+string(placeholders)+`) ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations by status: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func encodeEmbedding(vector []float64) (any, error) {
	if len(vector) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(vector)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
