package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"verdandi/internal/logging"
	"verdandi/internal/reservation"
	"verdandi/internal/step"
	"verdandi/internal/steps"
	"verdandi/internal/store"
	"verdandi/internal/textutil"
)

// strategyRunner is implemented by discovery steps whose output varies by
// strategy. The default discovery step implements it.
type strategyRunner interface {
	RunWithStrategy(ctx context.Context, sc *step.Context, strategy steps.Strategy) (*steps.IdeaCandidate, error)
}

var dedupStatuses = []reservation.Status{reservation.StatusActive, reservation.StatusCompleted}

// RunDiscoveryBatch discovers up to maxIdeas unique ideas and creates one
// pending experiment per idea. Each slot runs the discovery stage through a
// dedup loop: keyword-fingerprint search, embedding search when an embedder
// is configured, novelty scoring, then an atomic topic claim. Slots that
// cannot produce a unique idea within the retry budget are skipped. A nil
// strategyOverride balances the portfolio per the configured disruption
// ratio.
func (r *Runner) RunDiscoveryBatch(ctx context.Context, maxIdeas int, strategyOverride *steps.Strategy) ([]int64, error) {
	if maxIdeas <= 0 {
		maxIdeas = r.cfg.Discovery.MaxIdeas
	}
	discoveryStep, ok := r.registry.Discovery()
	if !ok {
		return nil, fmt.Errorf("discovery stage not registered")
	}

	schedule, err := r.buildSchedule(ctx, maxIdeas, strategyOverride)
	if err != nil {
		return nil, err
	}

	batch, err := r.store.CreateExperiment(ctx, "discovery_batch", "batch idea discovery", r.workerID())
	if err != nil {
		return nil, fmt.Errorf("create discovery batch experiment: %w", err)
	}
	r.appendEvent(ctx, batch.ID, "", store.EventDiscoveryStart,
		fmt.Sprintf("discovering up to %d ideas", maxIdeas))

	start := time.Now()
	var experimentIDs []int64
	var excludeTitles []string

	for slot := 0; slot < maxIdeas; slot++ {
		strategy := schedule[slot]
		r.logger.Info("discovery slot",
			logging.Int("slot", slot),
			logging.String("strategy", strategy.Name))

		idea := r.discoverUniqueIdea(ctx, discoveryStep, batch, excludeTitles, strategy)
		if idea == nil {
			r.logger.Warn("no unique idea for slot",
				logging.Int("slot", slot),
				logging.String("strategy", strategy.Name),
				logging.Int("retries", r.cfg.Discovery.MaxDedupRetries))
			continue
		}

		exp, err := r.store.CreateExperiment(ctx, idea.Title, idea.OneLiner, r.workerID())
		if err != nil {
			return experimentIDs, fmt.Errorf("create experiment for %q: %w", idea.Title, err)
		}
		payload, err := json.Marshal(idea)
		if err != nil {
			return experimentIDs, fmt.Errorf("serialize idea: %w", err)
		}
		if err := r.store.UpsertStageResult(ctx, exp.ID, steps.StageIdeaDiscovery, steps.NumberIdeaDiscovery, string(payload), r.workerID()); err != nil {
			return experimentIDs, fmt.Errorf("persist discovery result: %w", err)
		}
		r.appendEvent(ctx, exp.ID, steps.StageIdeaDiscovery, store.EventIdeaCreated,
			fmt.Sprintf("created experiment for %s (novelty=%.2f, type=%s)",
				idea.Title, idea.NoveltyScore, idea.DiscoveryType))

		experimentIDs = append(experimentIDs, exp.ID)
		excludeTitles = append(excludeTitles, idea.Title)
	}

	if err := r.store.UpdateExperimentStatus(ctx, batch.ID, store.StatusCompleted, 0); err != nil {
		r.logger.Warn("could not close discovery batch experiment", logging.Error(err))
	}
	if err := r.notifier.NotifyDiscoveryComplete(ctx, len(experimentIDs), time.Since(start)); err != nil {
		r.logger.Warn("discovery notification failed", logging.Error(err))
	}
	r.logger.Info("discovery batch complete", logging.Int("created", len(experimentIDs)))
	return experimentIDs, nil
}

// discoverUniqueIdea runs the dedup loop for one slot. It returns nil when
// every attempt produced a duplicate or lost the reservation race.
func (r *Runner) discoverUniqueIdea(ctx context.Context, discoveryStep step.Step, batch *store.Experiment, excludeTitles []string, strategy steps.Strategy) *steps.IdeaCandidate {
	localExcludes := append([]string(nil), excludeTitles...)

	for attempt := 0; attempt <= r.cfg.Discovery.MaxDedupRetries; attempt++ {
		sc := &step.Context{
			Experiment:    batch,
			Prior:         step.PriorResults{},
			WorkerID:      r.workerID(),
			TrialMode:     r.trialMode,
			ExcludeTitles: localExcludes,
			Logger:        r.logger,
		}

		idea, err := r.runDiscoveryStep(ctx, discoveryStep, sc, strategy)
		if err != nil {
			r.logger.Warn("discovery attempt failed",
				logging.Int("attempt", attempt+1),
				logging.Error(err))
			continue
		}

		fingerprint := textutil.KeywordFingerprint(idea.Title + " " + idea.OneLiner)
		matches, err := r.reservations.FindSimilarByFingerprint(ctx, fingerprint, r.cfg.Discovery.FingerprintThreshold, dedupStatuses...)
		if err != nil {
			r.logger.Warn("fingerprint search failed", logging.Error(err))
		}
		if len(matches) > 0 {
			r.logger.Warn("duplicate detected (fingerprint)",
				logging.String("title", idea.Title),
				logging.String("similar_to", matches[0].TopicKey),
				logging.Float64("similarity", matches[0].Similarity),
				logging.Int("attempt", attempt+1))
			localExcludes = append(localExcludes, idea.Title)
			continue
		}

		var vector []float64
		if r.embedder.Available() {
			vector, err = r.embedder.Embed(ctx, idea.Title+" "+idea.OneLiner)
			if err != nil {
				r.logger.Warn("embedding failed, skipping semantic dedup", logging.Error(err))
				vector = nil
			}
		}
		if len(vector) > 0 {
			matches, err = r.reservations.FindSimilarByEmbedding(ctx, vector, r.cfg.Discovery.EmbeddingThreshold, dedupStatuses...)
			if err != nil {
				r.logger.Warn("embedding search failed", logging.Error(err))
			}
			if len(matches) > 0 {
				r.logger.Warn("duplicate detected (embedding)",
					logging.String("title", idea.Title),
					logging.String("similar_to", matches[0].TopicKey),
					logging.Float64("similarity", matches[0].Similarity),
					logging.Int("attempt", attempt+1))
				localExcludes = append(localExcludes, idea.Title)
				continue
			}
		}

		idea.NoveltyScore = 1.0
		if len(vector) > 0 {
			idea.NoveltyScore = r.reservations.ComputeNoveltyScore(ctx, vector)
		}

		topicKey := textTopicKey(idea.Title)
		reserved, err := r.reservations.TryReserve(ctx, reservation.Claim{
			WorkerID:    r.workerID(),
			TopicKey:    topicKey,
			Description: idea.OneLiner,
			Category:    idea.Category,
			Embedding:   vector,
			Fingerprint: fingerprint,
			TTLHours:    r.cfg.Discovery.ReservationTTLHours,
		})
		if err != nil {
			r.logger.Warn("reservation claim errored",
				logging.String(logging.FieldTopicKey, topicKey),
				logging.Error(err))
			continue
		}
		if !reserved {
			r.logger.Warn("topic reservation lost to another worker",
				logging.String("title", idea.Title),
				logging.String(logging.FieldTopicKey, topicKey),
				logging.Int("attempt", attempt+1))
			localExcludes = append(localExcludes, idea.Title)
			continue
		}

		if len(vector) > 0 && r.memory.IsAvailable(ctx) {
			r.memory.StoreEmbedding(ctx, topicKey, vector, map[string]any{
				"topic_description": idea.OneLiner,
				"niche_category":    idea.Category,
				"worker_id":         r.workerID(),
				"fingerprint":       fingerprint,
				"status":            "active",
				"discovery_type":    string(idea.DiscoveryType),
			})
		}

		r.logger.Info("unique idea discovered",
			logging.String("title", idea.Title),
			logging.Float64("novelty", idea.NoveltyScore),
			logging.String(logging.FieldTopicKey, topicKey),
			logging.Int("attempt", attempt+1))
		return idea
	}
	return nil
}

func (r *Runner) runDiscoveryStep(ctx context.Context, discoveryStep step.Step, sc *step.Context, strategy steps.Strategy) (*steps.IdeaCandidate, error) {
	if runner, ok := discoveryStep.(strategyRunner); ok {
		return runner.RunWithStrategy(ctx, sc, strategy)
	}
	result, err := discoveryStep.Run(ctx, sc)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("serialize discovery result: %w", err)
	}
	var idea steps.IdeaCandidate
	if err := json.Unmarshal(payload, &idea); err != nil {
		return nil, fmt.Errorf("decode discovery result: %w", err)
	}
	return &idea, nil
}

// buildSchedule assigns strategies to slots, counting prior ideas by type so
// the portfolio converges toward the configured disruption ratio.
func (r *Runner) buildSchedule(ctx context.Context, count int, override *steps.Strategy) ([]steps.Strategy, error) {
	if override != nil {
		schedule := make([]steps.Strategy, count)
		for i := range schedule {
			schedule[i] = *override
		}
		return schedule, nil
	}

	disruption, moonshot, err := r.countIdeasByType(ctx)
	if err != nil {
		return nil, err
	}
	return steps.BuildSchedule(count, r.cfg.Discovery.DisruptionRatio, disruption, moonshot), nil
}

func (r *Runner) countIdeasByType(ctx context.Context) (disruption, moonshot int, err error) {
	experiments, err := r.store.ListExperiments(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list experiments: %w", err)
	}
	for _, exp := range experiments {
		result, err := r.store.GetStageResult(ctx, exp.ID, steps.StageIdeaDiscovery)
		if err != nil || result == nil {
			continue
		}
		var idea steps.IdeaCandidate
		if json.Unmarshal([]byte(result.Payload), &idea) != nil {
			continue
		}
		switch idea.DiscoveryType {
		case steps.DiscoveryDisruption:
			disruption++
		case steps.DiscoveryMoonshot:
			moonshot++
		}
	}
	return disruption, moonshot, nil
}

func textTopicKey(title string) string {
	return textutil.NormalizeTopicKey(title)
}
