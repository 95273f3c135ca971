package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	"github.com/fishermenfirst/fleetquota-backend/pkg/metrics"
)

// Service exposes the aggregated quota ledger. Reads are pure aggregation
// over fact rows; nothing here mutates quota state.
type Service interface {
	Remaining(ctx context.Context, orgID uuid.UUID, llp string, speciesCode enums.SpeciesCode, year int) (*Row, error)
	ForPermit(ctx context.Context, orgID uuid.UUID, llp string, year int) ([]Row, error)
	Fleet(ctx context.Context, orgID uuid.UUID, year int) ([]FleetRow, error)
	Invalidate(ctx context.Context, orgID uuid.UUID) error
}

type rowCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	LedgerKey(orgID, llp string, speciesCode, year int) string
	InvalidateLedger(ctx context.Context, orgID string) error
}

type service struct {
	repo    Repository
	cache   rowCache
	metrics *metrics.QuotaMetrics
	ttl     time.Duration
}

// NewService wires a ledger service. Cache and metrics are optional; with a
// nil cache every read recomputes from the database.
func NewService(repo Repository, cache rowCache, quotaMetrics *metrics.QuotaMetrics, cacheTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{
		repo:    repo,
		cache:   cache,
		metrics: quotaMetrics,
		ttl:     cacheTTL,
	}, nil
}

// Compute aggregates one ledger cell directly from fact rows. Transfer
// validation calls this with a transaction-bound repository so the check and
// the write see the same facts.
func Compute(ctx context.Context, repo Repository, orgID uuid.UUID, llp string, speciesCode enums.SpeciesCode, year int) (Row, error) {
	if llp == "" {
		return Row{}, fmt.Errorf("llp is required")
	}
	if year == 0 {
		return Row{}, fmt.Errorf("year is required")
	}

	filter := Filter{LLP: llp, SpeciesCode: speciesCode, Year: year}

	allocations, err := repo.ListAllocations(ctx, orgID, filter)
	if err != nil {
		return Row{}, fmt.Errorf("listing allocations: %w", err)
	}
	transfers, err := repo.ListTransfers(ctx, orgID, filter)
	if err != nil {
		return Row{}, fmt.Errorf("listing transfers: %w", err)
	}
	harvests, err := repo.ListHarvests(ctx, orgID, filter)
	if err != nil {
		return Row{}, fmt.Errorf("listing harvests: %w", err)
	}

	row := Row{
		LLP:         llp,
		SpeciesCode: speciesCode,
		Species:     speciesCode.ShortName(),
		Year:        year,
	}
	for _, allocation := range allocations {
		row.AllocationLbs = row.AllocationLbs.Add(allocation.AllocationLbs)
	}
	for _, transfer := range transfers {
		if transfer.ToLLP == llp {
			row.TransfersIn = row.TransfersIn.Add(transfer.Pounds)
		}
		if transfer.FromLLP == llp {
			row.TransfersOut = row.TransfersOut.Add(transfer.Pounds)
		}
	}
	for _, harvest := range harvests {
		row.Harvested = row.Harvested.Add(harvest.Pounds)
	}
	row.RemainingLbs = row.AllocationLbs.Add(row.TransfersIn).Sub(row.TransfersOut).Sub(row.Harvested)
	return row, nil
}

func (s *service) Remaining(ctx context.Context, orgID uuid.UUID, llp string, speciesCode enums.SpeciesCode, year int) (*Row, error) {
	if s.cache != nil {
		key := s.cache.LedgerKey(orgID.String(), llp, int(speciesCode), year)
		// a miss, stale payload, or cache outage all degrade to a database read
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var row Row
			if err := json.Unmarshal([]byte(raw), &row); err == nil {
				s.metrics.IncLedgerCacheHit()
				return &row, nil
			}
		}
		s.metrics.IncLedgerCacheMiss()
	}

	row, err := Compute(ctx, s.repo, orgID, llp, speciesCode, year)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(row); err == nil {
			key := s.cache.LedgerKey(orgID.String(), llp, int(speciesCode), year)
			_ = s.cache.Set(ctx, key, string(payload), s.ttl)
		}
	}
	return &row, nil
}

func (s *service) ForPermit(ctx context.Context, orgID uuid.UUID, llp string, year int) ([]Row, error) {
	rows := make([]Row, 0, len(enums.TransferableSpecies()))
	for _, speciesCode := range enums.TransferableSpecies() {
		row, err := s.Remaining(ctx, orgID, llp, speciesCode, year)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

func (s *service) Fleet(ctx context.Context, orgID uuid.UUID, year int) ([]FleetRow, error) {
	if year == 0 {
		return nil, fmt.Errorf("year is required")
	}

	filter := Filter{Year: year}
	allocations, err := s.repo.ListAllocations(ctx, orgID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing allocations: %w", err)
	}
	transfers, err := s.repo.ListTransfers(ctx, orgID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	harvests, err := s.repo.ListHarvests(ctx, orgID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing harvests: %w", err)
	}
	members, err := s.repo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}

	type cell struct {
		llp  string
		code enums.SpeciesCode
	}
	rows := map[cell]*Row{}
	row := func(llp string, code enums.SpeciesCode) *Row {
		key := cell{llp: llp, code: code}
		if existing, ok := rows[key]; ok {
			return existing
		}
		created := &Row{
			LLP:         llp,
			SpeciesCode: code,
			Species:     code.ShortName(),
			Year:        year,
		}
		rows[key] = created
		return created
	}

	// every member permit gets a row per target species, even with no facts
	for _, member := range members {
		for _, code := range enums.TransferableSpecies() {
			row(member.LLP, code)
		}
	}

	for _, allocation := range allocations {
		r := row(allocation.LLP, allocation.SpeciesCode)
		r.AllocationLbs = r.AllocationLbs.Add(allocation.AllocationLbs)
	}
	for _, transfer := range transfers {
		in := row(transfer.ToLLP, transfer.SpeciesCode)
		in.TransfersIn = in.TransfersIn.Add(transfer.Pounds)
		out := row(transfer.FromLLP, transfer.SpeciesCode)
		out.TransfersOut = out.TransfersOut.Add(transfer.Pounds)
	}
	for _, harvest := range harvests {
		r := row(harvest.LLP, harvest.SpeciesCode)
		r.Harvested = r.Harvested.Add(harvest.Pounds)
	}

	memberByLLP := map[string]int{}
	for i, member := range members {
		memberByLLP[member.LLP] = i
	}

	fleet := make([]FleetRow, 0, len(rows))
	for _, r := range rows {
		r.RemainingLbs = r.AllocationLbs.Add(r.TransfersIn).Sub(r.TransfersOut).Sub(r.Harvested)
		decorated := FleetRow{Row: *r, RiskLevel: r.Risk()}
		if i, ok := memberByLLP[r.LLP]; ok {
			decorated.VesselName = members[i].VesselName
			decorated.CoopCode = members[i].CoopCode
		}
		fleet = append(fleet, decorated)
	}

	sort.Slice(fleet, func(i, j int) bool {
		if fleet[i].LLP != fleet[j].LLP {
			return fleet[i].LLP < fleet[j].LLP
		}
		return fleet[i].SpeciesCode < fleet[j].SpeciesCode
	})
	return fleet, nil
}

func (s *service) Invalidate(ctx context.Context, orgID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateLedger(ctx, orgID.String())
}

// TotalRemaining sums remaining pounds over rows, used by dashboard summary
// cards.
func TotalRemaining(rows []Row) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.RemainingLbs)
	}
	return total
}
