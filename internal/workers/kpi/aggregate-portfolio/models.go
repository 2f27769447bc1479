// internal/workers/kpi/aggregate-portfolio/models.go
package aggregateportfolio

import "portfolio-workers/internal/engine/kpi"

// Input is intentionally thin: the rollup always covers every use case with a
// recorded value, so the only caller choice is the document the summary lands
// under in the search index.
type Input struct {
	SummaryID string `json:"summaryId"`
}

type Output struct {
	SummaryID   string                    `json:"summaryId"`
	Summary     kpi.PortfolioValueSummary `json:"portfolioSummary"`
	GeneratedAt string                    `json:"generatedAt"`
	Indexed     bool                      `json:"indexed"`
}
