// internal/workers/scoring/compute-scores/handler.go
package computescores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portfolio-workers/internal/common/logger"
	"portfolio-workers/internal/common/metrics"
	"portfolio-workers/internal/engine/engineconfig"
	"portfolio-workers/internal/engine/levers"
	"portfolio-workers/internal/engine/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "portfolio.score.compute"
)

var (
	ErrLeverValidationFailed = errors.New("LEVER_VALIDATION_FAILED")
)

type Handler struct {
	config *Config
	rules  *engineconfig.Provider
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, rules *engineconfig.Provider, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		rules:  rules,
		redis:  redisClient,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "SCORE_COMPUTATION_FAILED"
		var vErr *levers.ValidationError
		if errors.As(err, &vErr) || errors.Is(err, ErrLeverValidationFailed) {
			errorCode = "LEVER_VALIDATION_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UseCaseID == "" {
		return nil, fmt.Errorf("%w: useCaseId is required", ErrLeverValidationFailed)
	}

	snap := h.rules.Snapshot()

	// Overrides travel in the job payload and must never be served from a
	// previous run, so they bypass the cache entirely.
	if input.Override == nil {
		if cached, err := h.readCache(ctx, input.UseCaseID, snap.Version); err == nil {
			metrics.ScoreCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.ScoreCacheLookups.WithLabelValues("miss").Inc()
	}

	computed, err := scoring.ComputeScores(&input.Levers, snap.Config.Scoring)
	if err != nil {
		return nil, err
	}

	result := scoring.Result{Computed: computed}
	if input.Override != nil {
		ov := *input.Override
		ov.Quadrant = scoring.Classify(ov.ImpactScore, ov.EffortScore, snap.Config.Scoring.Threshold)
		result.Override = &ov
	}

	effective := result.Effective()
	metrics.QuadrantClassifications.WithLabelValues(string(effective.Quadrant)).Inc()

	output := &Output{
		UseCaseID:    input.UseCaseID,
		Result:       result,
		Effective:    effective,
		RulesVersion: snap.Version,
	}

	if input.Override == nil {
		h.writeCache(ctx, input.UseCaseID, snap.Version, output)
	}

	return output, nil
}

// Cache keys carry the rules version so a rule reload invalidates every
// previously computed score without an explicit flush.
func cacheKey(useCaseID, version string) string {
	return fmt.Sprintf("score:%s:%s", useCaseID, version)
}

func (h *Handler) readCache(ctx context.Context, useCaseID, version string) (*Output, error) {
	data, err := h.redis.Get(ctx, cacheKey(useCaseID, version)).Result()
	if err != nil {
		return nil, err
	}

	var out Output
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *Handler) writeCache(ctx context.Context, useCaseID, version string, out *Output) {
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, cacheKey(useCaseID, version), data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("score cache write failed", map[string]interface{}{
			"error":     err,
			"useCaseId": useCaseID,
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
