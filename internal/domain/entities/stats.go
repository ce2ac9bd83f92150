package entities

import "github.com/shopspring/decimal"

// MonthlyPoint is one month's transaction volume.
type MonthlyPoint struct {
	Month string          `db:"month" json:"month"`
	Count int             `db:"count" json:"count"`
	Total decimal.Decimal `db:"total" json:"total"`
}

// StatusCount is the number of transactions in one status.
type StatusCount struct {
	Status TransactionStatus `db:"status" json:"status"`
	Count  int               `db:"count" json:"count"`
}

// SeverityCount is the number of transactions in one severity tier.
type SeverityCount struct {
	Severity Severity `db:"severity" json:"severity"`
	Count    int      `db:"count" json:"count"`
}

// LocationCount is the number of flagged or blocked transactions seen at
// one location.
type LocationCount struct {
	Location string `db:"location" json:"location"`
	Count    int    `db:"count" json:"count"`
}

// DashboardStats bundles the aggregates behind the dashboard charts.
type DashboardStats struct {
	MonthlyVolume        []MonthlyPoint  `json:"monthly_volume"`
	StatusDistribution   []StatusCount   `json:"status_distribution"`
	SeverityDistribution []SeverityCount `json:"severity_distribution"`
	TopLocations         []LocationCount `json:"top_locations"`
	GeneratedAt          string          `json:"generated_at"`
}
