package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"verdandi/internal/config"
	"verdandi/internal/embedding"
	"verdandi/internal/logging"
	"verdandi/internal/notifications"
	"verdandi/internal/reservation"
	"verdandi/internal/retry"
	"verdandi/internal/services"
	"verdandi/internal/step"
	"verdandi/internal/steps"
	"verdandi/internal/store"
	"verdandi/internal/vectormem"
)

// Options collects the runner's collaborators. Store and Registry are
// required; the rest default to fail-soft no-ops.
type Options struct {
	Store        *store.Store
	Registry     *step.Registry
	Reservations *reservation.Manager
	Memory       vectormem.Memory
	Embedder     embedding.Provider
	Notifier     notifications.Service
	Logger       *slog.Logger
	TrialMode    bool
}

// Runner walks experiments through the registered stages, checkpointing each
// stage result so a re-run resumes where the last one stopped. One runner
// serves one worker process; its circuit breakers are process-local.
type Runner struct {
	cfg          *config.Config
	store        *store.Store
	registry     *step.Registry
	reservations *reservation.Manager
	memory       vectormem.Memory
	embedder     embedding.Provider
	notifier     notifications.Service
	executor     *retry.Executor
	breakers     *retry.BreakerSet
	logger       *slog.Logger
	trialMode    bool
}

// NewRunner builds a pipeline runner from configuration.
func NewRunner(cfg *config.Config, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	memory := opts.Memory
	if memory == nil {
		memory = vectormem.Noop{}
	}
	var embedder embedding.Provider = embedding.Disabled{}
	if opts.Embedder != nil {
		embedder = opts.Embedder
	}
	reservations := opts.Reservations
	if reservations == nil {
		reservations = reservation.NewManager(opts.Store, memory, logger, cfg.Discovery.ReservationTTLHours)
	}
	var notifier notifications.Service = opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	resetTimeout := time.Duration(cfg.Retry.ResetSeconds * float64(time.Second))
	return &Runner{
		cfg:          cfg,
		store:        opts.Store,
		registry:     opts.Registry,
		reservations: reservations,
		memory:       memory,
		embedder:     embedder,
		notifier:     notifier,
		executor:     retry.NewExecutor(retry.PolicyFromConfig(cfg.Retry), logger),
		breakers:     retry.NewBreakerSet(cfg.Retry.FailureThreshold, resetTimeout, logger),
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		trialMode:    opts.TrialMode,
	}
}

func (r *Runner) workerID() string {
	return r.cfg.Worker.ID
}

// RunExperiment executes the remaining stages of one experiment. A stopAfter
// of zero runs to the end; a positive value halts once that stage number has
// completed. Terminal experiments are a no-op, and an experiment awaiting
// review does not advance outside trial mode.
func (r *Runner) RunExperiment(ctx context.Context, experimentID int64, stopAfter int) error {
	correlationID := newCorrelationID()
	logger := r.logger.With(
		logging.Int64(logging.FieldExperimentID, experimentID),
		logging.String(logging.FieldCorrelationID, correlationID))

	exp, err := r.store.GetExperiment(ctx, experimentID)
	if err != nil {
		return fmt.Errorf("load experiment: %w", err)
	}
	if exp == nil {
		return services.Wrap(services.ErrNotFound, "pipeline", "run",
			fmt.Sprintf("experiment %d not found", experimentID), nil)
	}

	if exp.Status.IsTerminal() {
		logger.Info("experiment already terminal", logging.String("status", string(exp.Status)))
		return nil
	}
	if exp.Status == store.StatusAwaitingReview && !r.trialMode {
		logger.Info("experiment awaiting review, not advancing")
		return nil
	}

	startFrom := exp.CurrentStep
	if startFrom < 1 {
		startFrom = 1
	}

	if err := r.store.UpdateExperimentStatus(ctx, experimentID, store.StatusRunning, exp.CurrentStep); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	r.appendEvent(ctx, experimentID, "", store.EventPipelineStart,
		fmt.Sprintf("starting from step %d", startFrom))

	for _, number := range r.registry.PipelineNumbers() {
		if number < startFrom {
			continue
		}
		stage, _ := r.registry.Get(number)

		sc, err := r.buildStepContext(ctx, exp, correlationID)
		if err != nil {
			return err
		}

		if stage.IsComplete(ctx, sc) {
			logger.Info("step already complete, skipping",
				logging.String(logging.FieldStep, stage.Name()))
			continue
		}
		if stage.ShouldSkip(ctx, sc) {
			logger.Info("step skipped", logging.String(logging.FieldStep, stage.Name()))
			continue
		}

		logger.Info("running step",
			logging.String(logging.FieldStep, stage.Name()),
			logging.Int("step_number", number))
		r.appendEvent(ctx, experimentID, stage.Name(), store.EventStepStart,
			fmt.Sprintf("running step %s", stage.Name()))

		payload, duration, err := r.executeStage(ctx, stage, sc)
		if err != nil {
			logger.Error("step failed",
				logging.String(logging.FieldStep, stage.Name()),
				logging.Error(err))
			r.appendEvent(ctx, experimentID, stage.Name(), store.EventStepError, err.Error())
			if statusErr := r.store.UpdateExperimentStatus(ctx, experimentID, store.StatusFailed, number); statusErr != nil {
				logger.Warn("could not mark experiment failed", logging.Error(statusErr))
			}
			r.updateMemoryStatus(ctx, exp.Title, "failed")
			return fmt.Errorf("stage %s: %w", stage.Name(), err)
		}

		if err := r.store.UpsertStageResult(ctx, experimentID, stage.Name(), number, payload, r.workerID()); err != nil {
			return fmt.Errorf("persist %s result: %w", stage.Name(), err)
		}
		if err := r.store.UpdateExperimentStatus(ctx, experimentID, store.StatusRunning, number); err != nil {
			return fmt.Errorf("advance checkpoint: %w", err)
		}
		r.appendEvent(ctx, experimentID, stage.Name(), store.EventStepComplete,
			fmt.Sprintf("step %s completed in %s", stage.Name(), duration.Round(time.Millisecond)))

		exp, err = r.store.GetExperiment(ctx, experimentID)
		if err != nil || exp == nil {
			return fmt.Errorf("reload experiment %d: %w", experimentID, err)
		}

		stopped, err := r.applyGates(ctx, exp, stage.Name(), number, payload, logger)
		if err != nil {
			return err
		}
		if stopped {
			return nil
		}

		if stopAfter > 0 && number >= stopAfter {
			logger.Info("pipeline stopped by caller",
				logging.String(logging.FieldStep, stage.Name()),
				logging.Int("stop_after", stopAfter))
			r.appendEvent(ctx, experimentID, stage.Name(), store.EventPipelineStopped,
				fmt.Sprintf("stopped after step %d (%s)", number, stage.Name()))
			return nil
		}
	}

	if err := r.store.UpdateExperimentStatus(ctx, experimentID, store.StatusCompleted, exp.CurrentStep); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	r.updateMemoryStatus(ctx, exp.Title, "completed")
	r.releaseTopic(ctx, exp.Title, true)
	r.appendEvent(ctx, experimentID, "", store.EventPipelineComplete, "all steps completed")
	if err := r.notifier.NotifyPipelineComplete(ctx, experimentID, exp.Title); err != nil {
		logger.Warn("pipeline notification failed", logging.Error(err))
	}
	logger.Info("experiment completed")
	return nil
}

// executeStage runs one stage through its circuit breaker inside the retry
// loop, so every retry attempt counts against the breaker.
func (r *Runner) executeStage(ctx context.Context, stage step.Step, sc *step.Context) (string, time.Duration, error) {
	breaker := r.breakers.Get(stage.Name())
	var result any
	start := time.Now()
	err := r.executor.Run(ctx, stage.Name(), func(ctx context.Context) error {
		return breaker.Call(ctx, func(ctx context.Context) error {
			out, runErr := stage.Run(ctx, sc)
			if runErr != nil {
				return runErr
			}
			result = out
			return nil
		})
	})
	duration := time.Since(start)
	if err != nil {
		return "", duration, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return "", duration, fmt.Errorf("serialize %s result: %w", stage.Name(), err)
	}
	return string(payload), duration, nil
}

// applyGates evaluates the scoring and review gates after a completed stage.
// It reports true when the pipeline should stop here.
func (r *Runner) applyGates(ctx context.Context, exp *store.Experiment, stageName string, number int, payload string, logger *slog.Logger) (bool, error) {
	switch stageName {
	case steps.StageScoring:
		var score steps.PreBuildScore
		if err := json.Unmarshal([]byte(payload), &score); err != nil {
			return false, fmt.Errorf("decode scoring result: %w", err)
		}
		if score.Decision != steps.DecisionNoGo {
			return false, nil
		}
		logger.Info("experiment scored no-go, stopping",
			logging.Int("total", score.Total),
			logging.Int("threshold", score.Threshold))
		if err := r.store.UpdateExperimentStatus(ctx, exp.ID, store.StatusNoGo, number); err != nil {
			return false, fmt.Errorf("mark no_go: %w", err)
		}
		r.updateMemoryStatus(ctx, exp.Title, "rejected")
		r.appendEvent(ctx, exp.ID, "", store.EventPipelineNoGo, "pre-build score below threshold")
		if err := r.notifier.NotifyNoGo(ctx, exp.ID, exp.Title, score.Total, score.Threshold); err != nil {
			logger.Warn("no-go notification failed", logging.Error(err))
		}
		return true, nil

	case steps.StageHumanReview:
		var review steps.ReviewResult
		if err := json.Unmarshal([]byte(payload), &review); err != nil {
			return false, fmt.Errorf("decode review result: %w", err)
		}
		if review.Approved || review.Skipped {
			return false, nil
		}
		logger.Info("experiment paused for human review")
		if err := r.store.UpdateExperimentStatus(ctx, exp.ID, store.StatusAwaitingReview, number); err != nil {
			return false, fmt.Errorf("mark awaiting_review: %w", err)
		}
		if err := r.notifier.NotifyReviewNeeded(ctx, exp.ID, exp.Title); err != nil {
			logger.Warn("review notification failed", logging.Error(err))
		}
		return true, nil
	}
	return false, nil
}

// RunAllPending runs every pending and approved experiment, isolating
// failures so one broken experiment does not stop the sweep. It returns the
// number of experiments that ran without error.
func (r *Runner) RunAllPending(ctx context.Context, stopAfter int) (int, error) {
	experiments, err := r.store.ListExperiments(ctx, store.StatusPending, store.StatusApproved)
	if err != nil {
		return 0, fmt.Errorf("list runnable experiments: %w", err)
	}

	succeeded := 0
	for _, exp := range experiments {
		if err := r.RunExperiment(ctx, exp.ID, stopAfter); err != nil {
			r.logger.Error("experiment run failed",
				logging.Int64(logging.FieldExperimentID, exp.ID),
				logging.Error(err))
			if notifyErr := r.notifier.NotifyError(ctx, err, fmt.Sprintf("experiment %d", exp.ID)); notifyErr != nil {
				r.logger.Warn("error notification failed", logging.Error(notifyErr))
			}
			continue
		}
		succeeded++
	}
	return succeeded, nil
}

func (r *Runner) buildStepContext(ctx context.Context, exp *store.Experiment, correlationID string) (*step.Context, error) {
	results, err := r.store.ListStageResults(ctx, exp.ID)
	if err != nil {
		return nil, fmt.Errorf("load stage results: %w", err)
	}
	flat := make([]store.StageResult, 0, len(results))
	for _, result := range results {
		flat = append(flat, *result)
	}
	return &step.Context{
		Experiment:    exp,
		Prior:         step.PriorResultsFrom(flat),
		CorrelationID: correlationID,
		WorkerID:      r.workerID(),
		TrialMode:     r.trialMode,
		Logger:        r.logger,
	}, nil
}

func (r *Runner) appendEvent(ctx context.Context, experimentID int64, stageName string, eventType store.EventType, message string) {
	if err := r.store.AppendEvent(ctx, experimentID, stageName, eventType, message, r.workerID()); err != nil {
		r.logger.Warn("could not append log event",
			logging.String(logging.FieldEventType, string(eventType)),
			logging.Error(err))
	}
}

// updateMemoryStatus mirrors a terminal transition into the vector memory
// payload, best effort.
func (r *Runner) updateMemoryStatus(ctx context.Context, title, status string) {
	if title == "" || !r.memory.IsAvailable(ctx) {
		return
	}
	topicKey := textTopicKey(title)
	if topicKey == "" {
		return
	}
	r.memory.UpdateStatus(ctx, topicKey, status)
}

func (r *Runner) releaseTopic(ctx context.Context, title string, completed bool) {
	topicKey := textTopicKey(title)
	if topicKey == "" {
		return
	}
	if _, err := r.reservations.Release(ctx, r.workerID(), topicKey, completed); err != nil {
		r.logger.Warn("could not release topic reservation",
			logging.String(logging.FieldTopicKey, topicKey),
			logging.Error(err))
	}
}

func newCorrelationID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
