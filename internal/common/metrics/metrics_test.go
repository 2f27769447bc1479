// internal/common/metrics/metrics_test.go
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// The handlers call these vecs with fixed label sets; a label added or
// removed here without touching every Handle/failJob would only blow up
// at runtime, so pin the cardinality in one place.

func TestJobMetrics_LabelSets(t *testing.T) {
	const taskType = "portfolio.test.task"

	before := testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues(taskType))
	WorkerJobsCompleted.WithLabelValues(taskType).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues(taskType)))

	failedBefore := testutil.ToFloat64(WorkerJobsFailed.WithLabelValues(taskType, "PARSE_ERROR"))
	WorkerJobsFailed.WithLabelValues(taskType, "PARSE_ERROR").Inc()
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(WorkerJobsFailed.WithLabelValues(taskType, "PARSE_ERROR")))

	WorkerJobsActive.WithLabelValues(taskType).Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(WorkerJobsActive.WithLabelValues(taskType)))
	WorkerJobsActive.WithLabelValues(taskType).Dec()
	assert.Equal(t, 0.0, testutil.ToFloat64(WorkerJobsActive.WithLabelValues(taskType)))

	WorkerJobDuration.WithLabelValues(taskType).Observe(0.25)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(WorkerJobDuration), 1)
}

func TestEngineMetrics_LabelSets(t *testing.T) {
	before := testutil.ToFloat64(QuadrantClassifications.WithLabelValues("Quick Win"))
	QuadrantClassifications.WithLabelValues("Quick Win").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(QuadrantClassifications.WithLabelValues("Quick Win")))

	activations := testutil.ToFloat64(GovernanceActivations.WithLabelValues("true"))
	GovernanceActivations.WithLabelValues("true").Inc()
	assert.Equal(t, activations+1, testutil.ToFloat64(GovernanceActivations.WithLabelValues("true")))

	hits := testutil.ToFloat64(ScoreCacheLookups.WithLabelValues("hit"))
	ScoreCacheLookups.WithLabelValues("hit").Inc()
	assert.Equal(t, hits+1, testutil.ToFloat64(ScoreCacheLookups.WithLabelValues("hit")))

	reloads := testutil.ToFloat64(EngineConfigReloads.WithLabelValues("applied"))
	EngineConfigReloads.WithLabelValues("applied").Inc()
	assert.Equal(t, reloads+1, testutil.ToFloat64(EngineConfigReloads.WithLabelValues("applied")))
}
