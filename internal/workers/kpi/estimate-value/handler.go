// internal/workers/kpi/estimate-value/handler.go
package estimatevalue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portfolio-workers/internal/common/logger"
	"portfolio-workers/internal/common/metrics"
	"portfolio-workers/internal/engine/engineconfig"
	"portfolio-workers/internal/engine/kpi"
	"portfolio-workers/internal/engine/levers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "portfolio.kpi.estimate"
)

var (
	ErrInvalidInput = errors.New("KPI_INPUT_INVALID")
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
		errorCode := "KPI_ESTIMATION_FAILED"
		var vErr *levers.ValidationError
		if errors.As(err, &vErr) || errors.Is(err, ErrInvalidInput) {
			errorCode = "KPI_INPUT_INVALID"
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
		return nil, fmt.Errorf("%w: useCaseId is required", ErrInvalidInput)
	}
	if input.Process == "" {
		return nil, fmt.Errorf("%w: process is required", ErrInvalidInput)
	}
	if err := input.Levers.Validate(); err != nil {
		return nil, err
	}

	snap := h.rules.Snapshot()

	estimates := make([]kpi.Estimate, 0)
	for _, def := range snap.Config.KPIs {
		est, err := kpi.EstimateKpi(def, input.Process, &input.Levers)
		if err != nil {
			return nil, err
		}
		if est != nil {
			estimates = append(estimates, *est)
		}
	}

	h.logger.Debug("kpi estimates produced", map[string]interface{}{
		"useCaseId": input.UseCaseID,
		"process":   input.Process,
		"count":     len(estimates),
	})

	return &Output{
		UseCaseID:    input.UseCaseID,
		Process:      input.Process,
		Estimates:    estimates,
		RulesVersion: snap.Version,
	}, nil
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
