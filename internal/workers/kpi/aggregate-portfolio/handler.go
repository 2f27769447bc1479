// internal/workers/kpi/aggregate-portfolio/handler.go
package aggregateportfolio

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portfolio-workers/internal/common/logger"
	"portfolio-workers/internal/common/metrics"
	"portfolio-workers/internal/engine/kpi"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "portfolio.kpi.aggregate"

	defaultSummaryID = "portfolio"
)

var (
	ErrQueryFailed = errors.New("QUERY_EXECUTION_FAILED")
)

// Indexer is the slice of the search client the rollup needs. Satisfied by
// *database.ElasticsearchClient.
type Indexer interface {
	IndexDocument(ctx context.Context, index, docID string, body []byte) error
}

type Handler struct {
	config *Config
	db     *sql.DB
	search Indexer
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, search Indexer, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		search: search,
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
		errorCode := "PORTFOLIO_AGGREGATION_FAILED"
		if errors.Is(err, ErrQueryFailed) {
			errorCode = "QUERY_EXECUTION_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

const valuesQuery = `SELECT use_case_id, phase, benefit_low, benefit_high, investment
FROM use_case_values ORDER BY use_case_id`

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	summaryID := input.SummaryID
	if summaryID == "" {
		summaryID = defaultSummaryID
	}

	rows, err := h.loadValues(ctx)
	if err != nil {
		return nil, err
	}

	summary := kpi.Aggregate(rows)

	h.logger.Info("portfolio value aggregated", map[string]interface{}{
		"useCases":        summary.UseCases,
		"annualBenefit":   summary.AnnualBenefit,
		"totalInvestment": summary.TotalInvestment,
	})

	output := &Output{
		SummaryID:   summaryID,
		Summary:     summary,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	output.Indexed = h.indexSummary(ctx, summaryID, summary)

	return output, nil
}

func (h *Handler) loadValues(ctx context.Context) ([]kpi.UseCaseValue, error) {
	rows, err := h.db.QueryContext(ctx, valuesQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	values := make([]kpi.UseCaseValue, 0)
	for rows.Next() {
		var v kpi.UseCaseValue
		if err := rows.Scan(&v.UseCaseID, &v.Phase, &v.BenefitLow, &v.BenefitMax, &v.Investment); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	return values, nil
}

// indexSummary publishes the rollup for dashboards. The summary itself is the
// job's product, so a search outage degrades the output rather than failing
// the job.
func (h *Handler) indexSummary(ctx context.Context, summaryID string, summary kpi.PortfolioValueSummary) bool {
	if h.search == nil {
		return false
	}

	body, err := json.Marshal(summary)
	if err != nil {
		h.logger.Warn("failed to encode summary for indexing", map[string]interface{}{
			"error": err,
		})
		return false
	}

	if err := h.search.IndexDocument(ctx, h.config.SummaryIndex, summaryID, body); err != nil {
		h.logger.Warn("failed to index portfolio summary", map[string]interface{}{
			"summaryId": summaryID,
			"error":     err,
		})
		return false
	}

	return true
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
