package store_test

import (
	"context"
	"testing"

	"verdandi/internal/store"
	"verdandi/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	exp, err := st.CreateExperiment(ctx, "Widget A", "a widget idea", "worker-1")
	if err != nil {
		t.Fatalf("CreateExperiment failed: %v", err)
	}
	if exp.ID == 0 {
		t.Fatal("expected experiment ID to be assigned")
	}
	if exp.Status != store.StatusPending {
		t.Fatalf("expected pending status, got %s", exp.Status)
	}
	if exp.CurrentStep != 0 {
		t.Fatalf("expected current step 0, got %d", exp.CurrentStep)
	}

	fetched, err := st.GetExperiment(ctx, exp.ID)
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Widget A" {
		t.Fatalf("unexpected fetched experiment: %#v", fetched)
	}
}

func TestGetExperimentMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	exp, err := st.GetExperiment(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if exp != nil {
		t.Fatalf("expected nil for missing experiment, got %#v", exp)
	}
}

func TestUpdateExperimentStatusNeverLowersStep(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	exp := testsupport.NewExperiment(t, st, "Checkpoint test")

	if err := st.UpdateExperimentStatus(ctx, exp.ID, store.StatusRunning, 3); err != nil {
		t.Fatalf("UpdateExperimentStatus failed: %v", err)
	}
	if err := st.UpdateExperimentStatus(ctx, exp.ID, store.StatusRunning, 1); err != nil {
		t.Fatalf("UpdateExperimentStatus failed: %v", err)
	}

	updated, err := st.GetExperiment(ctx, exp.ID)
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if updated.CurrentStep != 3 {
		t.Fatalf("expected current step to stay at 3, got %d", updated.CurrentStep)
	}
}

func TestUpdateExperimentStatusRejectsUnknownStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	exp := testsupport.NewExperiment(t, st, "Status test")
	if err := st.UpdateExperimentStatus(context.Background(), exp.ID, store.Status("bogus"), 0); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestUpdateExperimentStatusMissingExperiment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if err := st.UpdateExperimentStatus(context.Background(), 4242, store.StatusRunning, 1); err == nil {
		t.Fatal("expected error for missing experiment")
	}
}

func TestStageResultUpsertIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	exp := testsupport.NewExperiment(t, st, "Upsert test")

	if err := st.UpsertStageResult(ctx, exp.ID, "research", 2, `{"v":1}`, "worker-1"); err != nil {
		t.Fatalf("UpsertStageResult failed: %v", err)
	}
	if err := st.UpsertStageResult(ctx, exp.ID, "research", 2, `{"v":2}`, "worker-2"); err != nil {
		t.Fatalf("UpsertStageResult failed: %v", err)
	}

	result, err := st.GetStageResult(ctx, exp.ID, "research")
	if err != nil {
		t.Fatalf("GetStageResult failed: %v", err)
	}
	if result == nil {
		t.Fatal("expected stage result")
	}
	if result.Payload != `{"v":2}` {
		t.Fatalf("expected second payload to win, got %q", result.Payload)
	}
	if result.WorkerID != "worker-2" {
		t.Fatalf("expected worker-2, got %q", result.WorkerID)
	}

	all, err := st.ListStageResults(ctx, exp.ID)
	if err != nil {
		t.Fatalf("ListStageResults failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one row after upsert, got %d", len(all))
	}
}

func TestListStageResultsOrderedByStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	exp := testsupport.NewExperiment(t, st, "Ordering test")

	for _, stage := range []struct {
		name   string
		number int
	}{
		{"scoring", 3},
		{"ideation", 1},
		{"research", 2},
	} {
		if err := st.UpsertStageResult(ctx, exp.ID, stage.name, stage.number, "{}", "worker-1"); err != nil {
			t.Fatalf("UpsertStageResult failed: %v", err)
		}
	}

	results, err := st.ListStageResults(ctx, exp.ID)
	if err != nil {
		t.Fatalf("ListStageResults failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"ideation", "research", "scoring"} {
		if results[i].StageName != want {
			t.Fatalf("result %d: expected %s, got %s", i, want, results[i].StageName)
		}
	}
}

func TestSetExperimentReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	exp := testsupport.NewExperiment(t, st, "Review test")

	if err := st.SetExperimentReview(ctx, exp.ID, store.StatusApproved, "reviewer-1", "looks good"); err == nil {
		t.Fatal("expected error while not awaiting review")
	}

	if err := st.UpdateExperimentStatus(ctx, exp.ID, store.StatusAwaitingReview, 4); err != nil {
		t.Fatalf("UpdateExperimentStatus failed: %v", err)
	}
	if err := st.SetExperimentReview(ctx, exp.ID, store.StatusApproved, "reviewer-1", "looks good"); err != nil {
		t.Fatalf("SetExperimentReview failed: %v", err)
	}

	updated, err := st.GetExperiment(ctx, exp.ID)
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if updated.Status != store.StatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}
	if updated.ReviewerID != "reviewer-1" || updated.ReviewNotes != "looks good" {
		t.Fatalf("unexpected review metadata: %#v", updated)
	}
	if updated.ReviewedAt == nil {
		t.Fatal("expected reviewed timestamp")
	}
}

func TestSetExperimentReviewRejectsBadDecision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	exp := testsupport.NewExperiment(t, st, "Bad decision")
	if err := st.SetExperimentReview(context.Background(), exp.ID, store.StatusCompleted, "r", ""); err == nil {
		t.Fatal("expected error for non-review decision status")
	}
}

func TestAppendAndListEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	exp := testsupport.NewExperiment(t, st, "Event test")

	events := []struct {
		eventType store.EventType
		stage     string
	}{
		{store.EventPipelineStart, ""},
		{store.EventStepStart, "research"},
		{store.EventStepComplete, "research"},
	}
	for _, ev := range events {
		if err := st.AppendEvent(ctx, exp.ID, ev.stage, ev.eventType, "msg", "worker-1"); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}
	if err := st.AppendEvent(ctx, 0, "", store.EventDiscoveryStart, "sweep", "worker-1"); err != nil {
		t.Fatalf("AppendEvent without experiment failed: %v", err)
	}

	trail, err := st.ListEvents(ctx, exp.ID, 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("expected 3 events for experiment, got %d", len(trail))
	}
	if trail[0].EventType != store.EventPipelineStart || trail[2].EventType != store.EventStepComplete {
		t.Fatalf("unexpected event ordering: %#v", trail)
	}

	unscoped, err := st.ListEvents(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListEvents (unscoped) failed: %v", err)
	}
	if len(unscoped) != 1 || unscoped[0].EventType != store.EventDiscoveryStart {
		t.Fatalf("unexpected unscoped events: %#v", unscoped)
	}

	count, err := st.CountEvents(ctx, exp.ID, store.EventStepComplete)
	if err != nil {
		t.Fatalf("CountEvents failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 step_complete event, got %d", count)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewExperiment(t, st, "A")
	testsupport.NewExperiment(t, st, "B")
	if err := st.UpdateExperimentStatus(ctx, a.ID, store.StatusCompleted, 5); err != nil {
		t.Fatalf("UpdateExperimentStatus failed: %v", err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[store.StatusPending] != 1 || stats[store.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	health, err := st.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Completed != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	testsupport.NewExperiment(t, st, "Health check")

	health, err := st.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable {
		t.Fatalf("expected healthy database, got %#v", health)
	}
	if len(health.MissingTables) != 0 {
		t.Fatalf("expected no missing tables, got %v", health.MissingTables)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
	if health.TotalExperiments != 1 {
		t.Fatalf("expected 1 experiment, got %d", health.TotalExperiments)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := store.ParseStatus(" Awaiting_Review "); !ok || status != store.StatusAwaitingReview {
		t.Fatalf("unexpected parse result: %v %v", status, ok)
	}
	if _, ok := store.ParseStatus("nonsense"); ok {
		t.Fatal("expected unknown status to fail parsing")
	}
	if !store.StatusCompleted.IsTerminal() || store.StatusFailed.IsTerminal() {
		t.Fatal("unexpected terminal classification")
	}
}
