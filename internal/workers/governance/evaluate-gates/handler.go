// internal/workers/governance/evaluate-gates/handler.go
package evaluategates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"portfolio-workers/internal/common/logger"
	"portfolio-workers/internal/common/metrics"
	"portfolio-workers/internal/engine/governance"
	"portfolio-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "portfolio.governance.evaluate"
)

var (
	ErrUseCaseNotFound = errors.New("USE_CASE_NOT_FOUND")
	ErrLookupFailed    = errors.New("QUERY_EXECUTION_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
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
		errorCode := "GOVERNANCE_EVALUATION_FAILED"
		switch {
		case errors.Is(err, ErrUseCaseNotFound):
			errorCode = "USE_CASE_NOT_FOUND"
		case errors.Is(err, ErrLookupFailed):
			errorCode = "QUERY_EXECUTION_FAILED"
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
		return nil, fmt.Errorf("%w: useCaseId is required", ErrUseCaseNotFound)
	}

	attrs := input.Attributes
	if attrs == nil {
		loaded, err := h.loadAttributes(ctx, input.UseCaseID)
		if err != nil {
			return nil, err
		}
		attrs = loaded
	}

	status := governance.Evaluate(*attrs)
	metrics.GovernanceActivations.WithLabelValues(strconv.FormatBool(status.CanActivate)).Inc()

	h.logger.Info("governance evaluated", map[string]interface{}{
		"useCaseId":       input.UseCaseID,
		"canActivate":     status.CanActivate,
		"overallProgress": status.OverallProgress,
	})

	return &Output{
		UseCaseID:   input.UseCaseID,
		Status:      status,
		EvaluatedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

const attributesQuery = `SELECT id, name, primary_business_owner, business_function, status, deployment_status, levers,
       explainability_required, customer_harm_risk, human_accountability, data_location_restricted, third_party_model
FROM use_cases WHERE id = $1`

func (h *Handler) loadAttributes(ctx context.Context, useCaseID string) (*models.UseCaseAttributes, error) {
	var (
		attrs     models.UseCaseAttributes
		leversRaw []byte
	)

	err := h.db.QueryRowContext(ctx, attributesQuery, useCaseID).Scan(
		&attrs.ID,
		&attrs.Name,
		&attrs.PrimaryBusinessOwner,
		&attrs.BusinessFunction,
		&attrs.Status,
		&attrs.DeploymentStatus,
		&leversRaw,
		&attrs.ExplainabilityRequired,
		&attrs.CustomerHarmRisk,
		&attrs.HumanAccountability,
		&attrs.DataLocationRestricted,
		&attrs.ThirdPartyModel,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUseCaseNotFound, useCaseID)
		}
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	if len(leversRaw) > 0 {
		if err := json.Unmarshal(leversRaw, &attrs.Levers); err != nil {
			return nil, fmt.Errorf("%w: decode levers: %v", ErrLookupFailed, err)
		}
	}

	return &attrs, nil
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
