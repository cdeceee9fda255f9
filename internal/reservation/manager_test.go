package reservation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"verdandi/internal/reservation"
	"verdandi/internal/testsupport"
	"verdandi/internal/vectormem"
)

func newManager(t *testing.T) *reservation.Manager {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return reservation.NewManager(st, nil, nil, 24)
}

func TestTryReserveClaimsTopic(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	ok, err := manager.TryReserve(ctx, reservation.Claim{
		WorkerID:    "worker-a",
		TopicKey:    "smart-home-energy",
		Description: "Smart home energy dashboards",
		Category:    "iot",
		Fingerprint: "dashboards|energy|home|smart",
	})
	if err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	if !ok {
		t.Fatal("expected first claim to succeed")
	}

	ok, err = manager.TryReserve(ctx, reservation.Claim{
		WorkerID: "worker-b",
		TopicKey: "smart-home-energy",
	})
	if err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	if ok {
		t.Fatal("expected second claim on the same key to fail")
	}

	held, err := manager.Get(ctx, "smart-home-energy")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if held == nil {
		t.Fatal("expected active reservation")
	}
	if held.WorkerID != "worker-a" {
		t.Fatalf("unexpected holder %q", held.WorkerID)
	}
	if held.Status != reservation.StatusActive {
		t.Fatalf("unexpected status %q", held.Status)
	}
	if !held.ExpiresAt.After(held.ReservedAt) {
		t.Fatal("expected expiry after reservation time")
	}
}

func TestTryReserveConcurrentSingleWinner(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	// Losers must see a clean false, never a lock error: a busy claim
	// waits for the writer instead of surfacing SQLITE_BUSY.
	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan string, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		workerID := fmt.Sprintf("worker-%02d", i)
		go func() {
			defer wg.Done()
			<-start
			ok, err := manager.TryReserve(ctx, reservation.Claim{
				WorkerID: workerID,
				TopicKey: "contested-topic",
			})
			if err != nil {
				t.Errorf("TryReserve: %v", err)
				return
			}
			if ok {
				wins <- workerID
			}
		}()
	}
	close(start)
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %d (%v)", len(winners), winners)
	}
}

func TestTryReserveReclaimsExpiredTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	manager := reservation.NewManager(st, nil, nil, 24)
	ctx := context.Background()

	past := time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339Nano)
	_, err := st.DB().ExecContext(ctx,
		`INSERT INTO topic_reservations (topic_key, worker_id, status, reserved_at, expires_at)
         VALUES ('lapsed-topic', 'worker-gone', 'active', ?, ?)`,
		past, past)
	if err != nil {
		t.Fatalf("seed stale reservation: %v", err)
	}

	ok, err := manager.TryReserve(ctx, reservation.Claim{
		WorkerID: "worker-new",
		TopicKey: "lapsed-topic",
	})
	if err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	if !ok {
		t.Fatal("expected claim over a lapsed reservation to succeed")
	}

	all, err := manager.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
	if all[0].Status != reservation.StatusExpired {
		t.Fatalf("expected stale row expired, got %q", all[0].Status)
	}
	if all[1].WorkerID != "worker-new" || all[1].Status != reservation.StatusActive {
		t.Fatalf("unexpected new claim row: %+v", all[1])
	}
}

func TestReleaseOnlyTouchesOwnActiveClaim(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	if _, err := manager.TryReserve(ctx, reservation.Claim{WorkerID: "worker-a", TopicKey: "topic-one"}); err != nil {
		t.Fatalf("TryReserve: %v", err)
	}

	ok, err := manager.Release(ctx, "worker-b", "topic-one", false)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok {
		t.Fatal("expected release by non-holder to fail")
	}

	ok, err = manager.Release(ctx, "worker-a", "topic-one", false)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !ok {
		t.Fatal("expected release by holder to succeed")
	}

	all, err := manager.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if all[0].Status != reservation.StatusReleased {
		t.Fatalf("expected released status, got %q", all[0].Status)
	}
	if all[0].ReleasedAt == nil {
		t.Fatal("expected released_at set")
	}

	// A released key is claimable again.
	ok, err = manager.TryReserve(ctx, reservation.Claim{WorkerID: "worker-b", TopicKey: "topic-one"})
	if err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	if !ok {
		t.Fatal("expected released topic to be claimable")
	}
}

func TestReleaseCompletedKeepsTopicRetired(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	if _, err := manager.TryReserve(ctx, reservation.Claim{WorkerID: "worker-a", TopicKey: "finished-topic"}); err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	ok, err := manager.Release(ctx, "worker-a", "finished-topic", true)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !ok {
		t.Fatal("expected release to succeed")
	}

	all, err := manager.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if all[0].Status != reservation.StatusCompleted {
		t.Fatalf("expected completed status, got %q", all[0].Status)
	}
}

func TestRenewExtendsActiveClaim(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	if _, err := manager.TryReserve(ctx, reservation.Claim{WorkerID: "worker-a", TopicKey: "kept-topic", TTLHours: 1}); err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	before, err := manager.Get(ctx, "kept-topic")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	ok, err := manager.Renew(ctx, "worker-a", "kept-topic", 48)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if !ok {
		t.Fatal("expected renew to succeed")
	}

	after, err := manager.Get(ctx, "kept-topic")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !after.ExpiresAt.After(before.ExpiresAt) {
		t.Fatal("expected renew to push expiry forward")
	}
	if after.RenewedAt == nil {
		t.Fatal("expected renewed_at set")
	}

	ok, err = manager.Renew(ctx, "worker-b", "kept-topic", 48)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if ok {
		t.Fatal("expected renew by non-holder to fail")
	}
}

func TestExpireStale(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	manager := reservation.NewManager(st, nil, nil, 24)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339Nano)
	for _, key := range []string{"old-one", "old-two"} {
		_, err := st.DB().ExecContext(ctx,
			`INSERT INTO topic_reservations (topic_key, worker_id, status, reserved_at, expires_at)
             VALUES (?, 'worker-gone', 'active', ?, ?)`, key, past, past)
		if err != nil {
			t.Fatalf("seed stale reservation: %v", err)
		}
	}
	if _, err := manager.TryReserve(ctx, reservation.Claim{WorkerID: "worker-a", TopicKey: "fresh-topic"}); err != nil {
		t.Fatalf("TryReserve: %v", err)
	}

	count, err := manager.ExpireStale(ctx)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 expired, got %d", count)
	}

	active, err := manager.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].TopicKey != "fresh-topic" {
		t.Fatalf("unexpected active set: %+v", active)
	}
}

func TestFindSimilarByFingerprint(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	claims := []reservation.Claim{
		{WorkerID: "worker-a", TopicKey: "solar-roofs", Fingerprint: "energy|panels|roofs|solar"},
		{WorkerID: "worker-a", TopicKey: "solar-farms", Fingerprint: "energy|farms|grid|solar"},
		{WorkerID: "worker-a", TopicKey: "knitting", Fingerprint: "knitting|patterns|wool|yarn"},
	}
	for _, claim := range claims {
		if _, err := manager.TryReserve(ctx, claim); err != nil {
			t.Fatalf("TryReserve %s: %v", claim.TopicKey, err)
		}
	}

	matches, err := manager.FindSimilarByFingerprint(ctx, "energy|panels|roofs|solar", 0.4)
	if err != nil {
		t.Fatalf("FindSimilarByFingerprint: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].TopicKey != "solar-roofs" {
		t.Fatalf("expected exact match first, got %q", matches[0].TopicKey)
	}
	if matches[0].Similarity != 1.0 {
		t.Fatalf("expected similarity 1.0, got %v", matches[0].Similarity)
	}
	if matches[1].Similarity >= matches[0].Similarity {
		t.Fatal("expected matches sorted by similarity descending")
	}
}

func TestFindSimilarByEmbeddingLocalScan(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	claims := []reservation.Claim{
		{WorkerID: "worker-a", TopicKey: "near", Embedding: []float64{1, 0, 0}},
		{WorkerID: "worker-a", TopicKey: "far", Embedding: []float64{0, 1, 0}},
	}
	for _, claim := range claims {
		if _, err := manager.TryReserve(ctx, claim); err != nil {
			t.Fatalf("TryReserve %s: %v", claim.TopicKey, err)
		}
	}

	matches, err := manager.FindSimilarByEmbedding(ctx, []float64{1, 0, 0}, 0.8)
	if err != nil {
		t.Fatalf("FindSimilarByEmbedding: %v", err)
	}
	if len(matches) != 1 || matches[0].TopicKey != "near" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

type fakeMemory struct {
	vectormem.Noop
	matches []vectormem.Match
	filters [][]string
}

func (f *fakeMemory) IsAvailable(context.Context) bool { return true }

func (f *fakeMemory) FindSimilar(_ context.Context, _ []float64, _ float64, _ int, statusFilter []string) []vectormem.Match {
	f.filters = append(f.filters, statusFilter)
	return f.matches
}

func (f *fakeMemory) ComputeNovelty(context.Context, []float64, []string) float64 { return 0.25 }

func TestFindSimilarByEmbeddingPrefersVectorMemory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	memory := &fakeMemory{matches: []vectormem.Match{{TopicKey: "remote-hit", Similarity: 0.9}}}
	manager := reservation.NewManager(st, memory, nil, 24)
	ctx := context.Background()

	matches, err := manager.FindSimilarByEmbedding(ctx, []float64{1, 0}, 0.82,
		reservation.StatusActive, reservation.StatusCompleted)
	if err != nil {
		t.Fatalf("FindSimilarByEmbedding: %v", err)
	}
	if len(matches) != 1 || matches[0].TopicKey != "remote-hit" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if len(memory.filters) != 1 {
		t.Fatalf("expected one remote query, got %d", len(memory.filters))
	}
	filter := memory.filters[0]
	if len(filter) != 2 || filter[0] != "active" || filter[1] != "completed" {
		t.Fatalf("unexpected status filter: %v", filter)
	}

	if score := manager.ComputeNoveltyScore(ctx, []float64{1, 0}); score != 0.25 {
		t.Fatalf("expected remote novelty 0.25, got %v", score)
	}
}

func TestComputeNoveltyScoreLocalFallback(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	if score := manager.ComputeNoveltyScore(ctx, []float64{1, 0, 0}); score != 1.0 {
		t.Fatalf("expected novelty 1.0 for empty corpus, got %v", score)
	}

	if _, err := manager.TryReserve(ctx, reservation.Claim{
		WorkerID:  "worker-a",
		TopicKey:  "known-topic",
		Embedding: []float64{1, 0, 0},
	}); err != nil {
		t.Fatalf("TryReserve: %v", err)
	}

	if score := manager.ComputeNoveltyScore(ctx, []float64{1, 0, 0}); score > 0.0001 {
		t.Fatalf("expected near-zero novelty for identical embedding, got %v", score)
	}
	if score := manager.ComputeNoveltyScore(ctx, nil); score != 1.0 {
		t.Fatalf("expected novelty 1.0 for empty vector, got %v", score)
	}
}
