// internal/workers/scoring/estimate-size/handler.go
package estimatesize

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
	"portfolio-workers/internal/engine/sizing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "portfolio.size.estimate"
)

var (
	ErrScoresOutOfRange   = errors.New("SCORE_OUT_OF_RANGE")
	ErrSizingRuleMismatch = errors.New("SIZING_RULE_MISMATCH")
	ErrEngineConfig       = errors.New("ENGINE_CONFIG_INVALID")
)

type Handler struct {
	config *Config
	rules  *engineconfig.Provider
	logger logger.Logger
}

func NewHandler(config *Config, rules *engineconfig.Provider, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		rules:  rules,
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
		errorCode := "SIZE_ESTIMATION_FAILED"
		switch {
		case errors.Is(err, ErrScoresOutOfRange):
			errorCode = "SCORE_OUT_OF_RANGE"
		case errors.Is(err, ErrSizingRuleMismatch):
			errorCode = "SIZING_RULE_MISMATCH"
		case errors.Is(err, ErrEngineConfig):
			errorCode = "ENGINE_CONFIG_INVALID"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.UseCaseID == "" {
		return nil, fmt.Errorf("%w: useCaseId is required", ErrScoresOutOfRange)
	}
	if !scoreInRange(input.ImpactScore) || !scoreInRange(input.EffortScore) {
		return nil, fmt.Errorf("%w: impact=%.2f effort=%.2f outside [%d,%d]",
			ErrScoresOutOfRange, input.ImpactScore, input.EffortScore, levers.MinScore, levers.MaxScore)
	}

	snap := h.rules.Snapshot()

	rule, err := snap.SizingRules.Match(input.ImpactScore, input.EffortScore)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSizingRuleMismatch, err)
	}

	sc := snap.Config.Sizing
	cost, err := sizing.EstimateCost(sc.RoleMix[rule.Target], sc.DailyRates, sc.OverheadMultiplier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineConfig, err)
	}

	benefit, err := sizing.EstimateBenefit(rule.Target, sc.BenefitBase, sc.BenefitSpreadPct)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineConfig, err)
	}

	h.logger.Debug("size matched", map[string]interface{}{
		"useCaseId": input.UseCaseID,
		"rule":      rule.Name,
		"size":      string(rule.Target),
	})

	return &Output{
		UseCaseID: input.UseCaseID,
		Estimate: sizing.Estimate{
			Target:   rule.Target,
			RuleName: rule.Name,
			Cost:     cost,
			Benefit:  benefit,
			Currency: sc.Currency,
		},
		RulesVersion: snap.Version,
	}, nil
}

func scoreInRange(v float64) bool {
	return v >= float64(levers.MinScore) && v <= float64(levers.MaxScore)
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
