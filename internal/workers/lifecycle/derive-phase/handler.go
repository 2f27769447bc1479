// internal/workers/lifecycle/derive-phase/handler.go
package derivephase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portfolio-workers/internal/common/logger"
	"portfolio-workers/internal/common/metrics"
	"portfolio-workers/internal/engine/engineconfig"
	"portfolio-workers/internal/engine/lifecycle"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "portfolio.phase.derive"
)

var (
	ErrInvalidSignals      = errors.New("PHASE_SIGNALS_INVALID")
	ErrPhaseRulesExhausted = errors.New("PHASE_RULES_EXHAUSTED")
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
		errorCode := "PHASE_DERIVATION_FAILED"
		switch {
		case errors.Is(err, ErrInvalidSignals):
			errorCode = "PHASE_SIGNALS_INVALID"
		case errors.Is(err, ErrPhaseRulesExhausted):
			errorCode = "PHASE_RULES_EXHAUSTED"
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
		return nil, fmt.Errorf("%w: useCaseId is required", ErrInvalidSignals)
	}

	snap := h.rules.Snapshot()

	var (
		phase  string
		source string
	)
	if input.Manual != nil {
		if input.Manual.Phase == "" || input.Manual.AssignedBy == "" {
			return nil, fmt.Errorf("%w: manual phase needs a phase and an assigner", ErrInvalidSignals)
		}
		phase = input.Manual.Phase
		source = SourceManual
	} else {
		if input.Status == "" {
			return nil, fmt.Errorf("%w: status is required", ErrInvalidSignals)
		}
		derived, err := lifecycle.DerivePhase(input.Status, input.DeploymentStatus, snap.Config.Phases)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPhaseRulesExhausted, err)
		}
		phase = derived
		source = SourceDerived
	}

	output := &Output{
		UseCaseID:    input.UseCaseID,
		Phase:        phase,
		Source:       source,
		RulesVersion: snap.Version,
	}

	if input.Transition != nil {
		report := lifecycle.EvaluateTransition(
			snap.Config.Phases,
			input.Transition.FromPhase,
			input.Transition.ToPhase,
			input.Transition.Satisfied,
			input.Transition.Justification,
		)
		output.Transition = &report
	}

	return output, nil
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
