package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
)

// Row is one ledger cell: the quota position of a permit for a species and
// year. remaining = allocation + transfers_in - transfers_out - harvested.
// Negative remaining is a legal overage, not an error.
type Row struct {
	LLP           string            `json:"llp"`
	SpeciesCode   enums.SpeciesCode `json:"species_code"`
	Species       string            `json:"species"`
	Year          int               `json:"year"`
	AllocationLbs decimal.Decimal   `json:"allocation_lbs"`
	TransfersIn   decimal.Decimal   `json:"transfers_in"`
	TransfersOut  decimal.Decimal   `json:"transfers_out"`
	Harvested     decimal.Decimal   `json:"harvested"`
	RemainingLbs  decimal.Decimal   `json:"remaining_lbs"`
}

// PercentRemaining returns remaining as a percentage of the summed
// allocation. The second return is false when allocation is zero, where a
// percentage is not applicable.
func (r Row) PercentRemaining() (float64, bool) {
	if r.AllocationLbs.IsZero() {
		return 0, false
	}
	pct, _ := r.RemainingLbs.Div(r.AllocationLbs).Mul(decimal.NewFromInt(100)).Float64()
	return pct, true
}

// Risk classifies the row for dashboard flags.
func (r Row) Risk() enums.RiskLevel {
	pct, ok := r.PercentRemaining()
	return enums.RiskForPercent(pct, ok)
}

// FleetRow decorates a ledger row with vessel and cooperative lookups for
// fleet-wide reporting.
type FleetRow struct {
	Row
	VesselName string          `json:"vessel_name"`
	CoopCode   string          `json:"coop_code"`
	RiskLevel  enums.RiskLevel `json:"risk_level"`
}
