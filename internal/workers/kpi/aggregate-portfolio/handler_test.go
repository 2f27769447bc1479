// internal/workers/kpi/aggregate-portfolio/handler_test.go
package aggregateportfolio

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"portfolio-workers/internal/common/logger"
	"portfolio-workers/internal/engine/kpi"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeIndexer struct {
	err   error
	calls int
	index string
	docID string
	body  []byte
}

func (f *fakeIndexer) IndexDocument(_ context.Context, index, docID string, body []byte) error {
	f.calls++
	f.index = index
	f.docID = docID
	f.body = body
	return f.err
}

func createTestHandler(t *testing.T, db *sql.DB, search Indexer) *Handler {
	return NewHandler(
		&Config{Timeout: 30 * time.Second, SummaryIndex: "portfolio-value-summaries"},
		db,
		search,
		logger.NewTestLogger(t),
	)
}

func expectValuesQuery(mock sqlmock.Sqlmock) *sqlmock.ExpectedQuery {
	return mock.ExpectQuery(valuesQuery)
}

func valueColumns() []string {
	return []string{"use_case_id", "phase", "benefit_low", "benefit_high", "investment"}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_PortfolioRollup(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	expectValuesQuery(mock).WillReturnRows(sqlmock.NewRows(valueColumns()).
		AddRow("uc-001", "strategic", 150000.0, 450000.0, 180000.0).
		AddRow("uc-002", "transition", 700000.0, 1300000.0, 400000.0))

	indexer := &fakeIndexer{}
	handler := createTestHandler(t, db, indexer)

	output, err := handler.Execute(context.Background(), &Input{SummaryID: "q3-review"})

	require.NoError(t, err)
	assert.Equal(t, "q3-review", output.SummaryID)
	assert.Equal(t, 2, output.Summary.UseCases)
	assert.InDelta(t, 1300000.0, output.Summary.AnnualBenefit, 0.01)
	assert.InDelta(t, 108333.33, output.Summary.MonthlyBenefit, 0.01)
	assert.InDelta(t, 580000.0, output.Summary.TotalInvestment, 0.01)
	require.NotNil(t, output.Summary.ROIPercent)
	assert.InDelta(t, 124.14, *output.Summary.ROIPercent, 0.001)
	require.NotNil(t, output.Summary.BreakevenMonths)
	assert.InDelta(t, 5.4, *output.Summary.BreakevenMonths, 0.001)

	require.Len(t, output.Summary.ByPhase, 2)
	assert.Equal(t, "strategic", output.Summary.ByPhase[0].Phase)
	assert.InDelta(t, 300000.0, output.Summary.ByPhase[0].AnnualBenefit, 0.01)
	assert.Equal(t, "transition", output.Summary.ByPhase[1].Phase)
	assert.InDelta(t, 1000000.0, output.Summary.ByPhase[1].AnnualBenefit, 0.01)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_IndexesSummary(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	expectValuesQuery(mock).WillReturnRows(sqlmock.NewRows(valueColumns()).
		AddRow("uc-001", "foundation", 35000.0, 65000.0, 47500.0))

	indexer := &fakeIndexer{}
	handler := createTestHandler(t, db, indexer)

	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.True(t, output.Indexed)
	assert.Equal(t, 1, indexer.calls)
	assert.Equal(t, "portfolio-value-summaries", indexer.index)
	assert.Equal(t, "portfolio", indexer.docID)

	var indexed kpi.PortfolioValueSummary
	require.NoError(t, json.Unmarshal(indexer.body, &indexed))
	assert.Equal(t, output.Summary, indexed)
}

// ==========================
// Edge Cases
// ==========================

func TestHandler_Execute_ZeroInvestment(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	expectValuesQuery(mock).WillReturnRows(sqlmock.NewRows(valueColumns()).
		AddRow("uc-001", "foundation", 35000.0, 65000.0, 0.0))

	handler := createTestHandler(t, db, &fakeIndexer{})

	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.InDelta(t, 50000.0, output.Summary.AnnualBenefit, 0.01)
	assert.Nil(t, output.Summary.ROIPercent)
	assert.Nil(t, output.Summary.BreakevenMonths)
}

func TestHandler_Execute_EmptyPortfolio(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	expectValuesQuery(mock).WillReturnRows(sqlmock.NewRows(valueColumns()))

	handler := createTestHandler(t, db, &fakeIndexer{})

	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 0, output.Summary.UseCases)
	assert.Zero(t, output.Summary.AnnualBenefit)
	assert.Empty(t, output.Summary.ByPhase)
	assert.Nil(t, output.Summary.ROIPercent)
}

func TestHandler_Execute_IndexFailureDegradesOutput(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	expectValuesQuery(mock).WillReturnRows(sqlmock.NewRows(valueColumns()).
		AddRow("uc-001", "strategic", 150000.0, 450000.0, 180000.0))

	indexer := &fakeIndexer{err: errors.New("cluster unreachable")}
	handler := createTestHandler(t, db, indexer)

	output, err := handler.Execute(context.Background(), &Input{})

	// The rollup still completes when the search cluster is down.
	require.NoError(t, err)
	assert.False(t, output.Indexed)
	assert.Equal(t, 1, output.Summary.UseCases)
}

func TestHandler_Execute_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	expectValuesQuery(mock).WillReturnError(errors.New("connection refused"))

	indexer := &fakeIndexer{}
	handler := createTestHandler(t, db, indexer)

	output, err := handler.Execute(context.Background(), &Input{})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueryFailed))
	assert.Nil(t, output)
	assert.Zero(t, indexer.calls)
}

// ==========================
// Determinism
// ==========================

func TestHandler_Execute_DeterministicSummary(t *testing.T) {
	run := func() kpi.PortfolioValueSummary {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()

		expectValuesQuery(mock).WillReturnRows(sqlmock.NewRows(valueColumns()).
			AddRow("uc-001", "strategic", 150000.0, 450000.0, 180000.0).
			AddRow("uc-002", "transition", 700000.0, 1300000.0, 400000.0).
			AddRow("uc-003", "strategic", 105000.0, 195000.0, 108750.0))

		handler := createTestHandler(t, db, &fakeIndexer{})
		output, err := handler.Execute(context.Background(), &Input{})
		require.NoError(t, err)
		return output.Summary
	}

	first := run()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, run())
	}
}
