package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
)

type fakeRepository struct {
	allocations []models.VesselAllocation
	transfers   []models.QuotaTransfer
	harvests    []models.Harvest
	members     []models.CoopMember
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) ListAllocations(ctx context.Context, orgID uuid.UUID, filter Filter) ([]models.VesselAllocation, error) {
	var out []models.VesselAllocation
	for _, a := range f.allocations {
		if a.OrgID != orgID || a.IsDeleted {
			continue
		}
		if filter.LLP != "" && a.LLP != filter.LLP {
			continue
		}
		if filter.SpeciesCode != 0 && a.SpeciesCode != filter.SpeciesCode {
			continue
		}
		if filter.Year != 0 && a.Year != filter.Year {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRepository) ListTransfers(ctx context.Context, orgID uuid.UUID, filter Filter) ([]models.QuotaTransfer, error) {
	var out []models.QuotaTransfer
	for _, tr := range f.transfers {
		if tr.OrgID != orgID || tr.IsDeleted {
			continue
		}
		if filter.LLP != "" && tr.FromLLP != filter.LLP && tr.ToLLP != filter.LLP {
			continue
		}
		if filter.SpeciesCode != 0 && tr.SpeciesCode != filter.SpeciesCode {
			continue
		}
		if filter.Year != 0 && tr.Year != filter.Year {
			continue
		}
		out = append(out, tr)
	}
	return out, nil
}

func (f *fakeRepository) ListHarvests(ctx context.Context, orgID uuid.UUID, filter Filter) ([]models.Harvest, error) {
	var out []models.Harvest
	for _, h := range f.harvests {
		if h.OrgID != orgID || h.IsDeleted {
			continue
		}
		if filter.LLP != "" && h.LLP != filter.LLP {
			continue
		}
		if filter.SpeciesCode != 0 && h.SpeciesCode != filter.SpeciesCode {
			continue
		}
		if filter.Year != 0 && h.Year != filter.Year {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeRepository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.CoopMember, error) {
	var out []models.CoopMember
	for _, m := range f.members {
		if m.OrgID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeCache struct {
	data map[string]string
	sets int
	gets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.gets++
	if val, ok := f.data[key]; ok {
		return val, nil
	}
	return "", errCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.sets++
	f.data[key] = value.(string)
	return nil
}

func (f *fakeCache) LedgerKey(orgID, llp string, speciesCode, year int) string {
	return fmt.Sprintf("%s|%s|%d|%d", orgID, llp, speciesCode, year)
}

func (f *fakeCache) InvalidateLedger(ctx context.Context, orgID string) error {
	for key := range f.data {
		delete(f.data, key)
	}
	return nil
}

var errCacheMiss = errors.New("cache miss")

func lbs(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

func TestComputeAggregatesPermitActivity(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepository{
		allocations: []models.VesselAllocation{
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, AllocationLbs: lbs(50000)},
		},
		transfers: []models.QuotaTransfer{
			{OrgID: orgID, FromLLP: "LLP B", ToLLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, Pounds: lbs(5000)},
			{OrgID: orgID, FromLLP: "LLP A", ToLLP: "LLP B", SpeciesCode: enums.SpeciesPOP, Year: 2026, Pounds: lbs(3000)},
		},
		harvests: []models.Harvest{
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, Pounds: lbs(20000)},
		},
	}

	row, err := Compute(context.Background(), repo, orgID, "LLP A", enums.SpeciesPOP, 2026)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if !row.AllocationLbs.Equal(lbs(50000)) {
		t.Fatalf("allocation: got %s", row.AllocationLbs)
	}
	if !row.TransfersIn.Equal(lbs(5000)) {
		t.Fatalf("transfers in: got %s", row.TransfersIn)
	}
	if !row.TransfersOut.Equal(lbs(3000)) {
		t.Fatalf("transfers out: got %s", row.TransfersOut)
	}
	if !row.Harvested.Equal(lbs(20000)) {
		t.Fatalf("harvested: got %s", row.Harvested)
	}
	if !row.RemainingLbs.Equal(lbs(32000)) {
		t.Fatalf("remaining: got %s, want 32000", row.RemainingLbs)
	}
}

func TestComputeNegativeRemainingIsValid(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepository{
		allocations: []models.VesselAllocation{
			{OrgID: orgID, LLP: "LLP C", SpeciesCode: enums.SpeciesNR, Year: 2026, AllocationLbs: lbs(25000)},
		},
		harvests: []models.Harvest{
			{OrgID: orgID, LLP: "LLP C", SpeciesCode: enums.SpeciesNR, Year: 2026, Pounds: lbs(25000)},
			{OrgID: orgID, LLP: "LLP C", SpeciesCode: enums.SpeciesNR, Year: 2026, Pounds: lbs(5000)},
		},
	}

	row, err := Compute(context.Background(), repo, orgID, "LLP C", enums.SpeciesNR, 2026)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !row.RemainingLbs.Equal(lbs(-5000)) {
		t.Fatalf("remaining: got %s, want -5000", row.RemainingLbs)
	}
}

func TestComputeExcludesSoftDeletedAndOtherPartitions(t *testing.T) {
	orgID := uuid.New()
	otherOrg := uuid.New()
	repo := &fakeRepository{
		allocations: []models.VesselAllocation{
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, AllocationLbs: lbs(10000)},
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, AllocationLbs: lbs(99999), IsDeleted: true},
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2025, AllocationLbs: lbs(77777)},
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesNR, Year: 2026, AllocationLbs: lbs(66666)},
			{OrgID: otherOrg, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, AllocationLbs: lbs(55555)},
		},
		transfers: []models.QuotaTransfer{
			{OrgID: orgID, FromLLP: "LLP A", ToLLP: "LLP B", SpeciesCode: enums.SpeciesPOP, Year: 2026, Pounds: lbs(1000), IsDeleted: true},
		},
	}

	row, err := Compute(context.Background(), repo, orgID, "LLP A", enums.SpeciesPOP, 2026)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !row.AllocationLbs.Equal(lbs(10000)) {
		t.Fatalf("allocation: got %s, want 10000", row.AllocationLbs)
	}
	if !row.TransfersOut.IsZero() {
		t.Fatalf("soft-deleted transfer leaked: %s", row.TransfersOut)
	}
}

func TestComputeDuplicateAllocationsSum(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepository{
		allocations: []models.VesselAllocation{
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesDusky, Year: 2026, AllocationLbs: lbs(10000)},
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesDusky, Year: 2026, AllocationLbs: lbs(2500)},
		},
	}

	row, err := Compute(context.Background(), repo, orgID, "LLP A", enums.SpeciesDusky, 2026)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !row.AllocationLbs.Equal(lbs(12500)) {
		t.Fatalf("allocation: got %s, want 12500", row.AllocationLbs)
	}
}

func TestComputeZeroAllocationYieldsZeroRemaining(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepository{}

	row, err := Compute(context.Background(), repo, orgID, "LLP Z", enums.SpeciesPOP, 2026)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !row.RemainingLbs.IsZero() {
		t.Fatalf("remaining: got %s, want 0", row.RemainingLbs)
	}
	if _, ok := row.PercentRemaining(); ok {
		t.Fatal("expected percent remaining to be not applicable")
	}
	if row.Risk() != enums.RiskNotApplicable {
		t.Fatalf("risk: got %s, want na", row.Risk())
	}
}

func TestComputeIdempotentRead(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepository{
		allocations: []models.VesselAllocation{
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, AllocationLbs: decimal.RequireFromString("50000.25")},
		},
		harvests: []models.Harvest{
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, Pounds: decimal.RequireFromString("10000.10")},
		},
	}

	first, err := Compute(context.Background(), repo, orgID, "LLP A", enums.SpeciesPOP, 2026)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	second, err := Compute(context.Background(), repo, orgID, "LLP A", enums.SpeciesPOP, 2026)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !first.RemainingLbs.Equal(second.RemainingLbs) || first.RemainingLbs.String() != second.RemainingLbs.String() {
		t.Fatalf("reads differ: %s vs %s", first.RemainingLbs, second.RemainingLbs)
	}
	if first.RemainingLbs.String() != "40000.15" {
		t.Fatalf("remaining: got %s, want 40000.15", first.RemainingLbs)
	}
}

func TestRemainingUsesCache(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepository{
		allocations: []models.VesselAllocation{
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, AllocationLbs: lbs(50000)},
		},
	}
	cache := newFakeCache()
	svc, err := NewService(repo, cache, nil, 30*time.Second)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ctx := context.Background()
	first, err := svc.Remaining(ctx, orgID, "LLP A", enums.SpeciesPOP, 2026)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected 1 cache write, got %d", cache.sets)
	}

	// mutate the underlying facts; the cached row should still be served
	repo.allocations[0].AllocationLbs = lbs(1)
	second, err := svc.Remaining(ctx, orgID, "LLP A", enums.SpeciesPOP, 2026)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if !second.RemainingLbs.Equal(first.RemainingLbs) {
		t.Fatalf("expected cached row, got %s", second.RemainingLbs)
	}

	// invalidation forces a recompute
	if err := svc.Invalidate(ctx, orgID); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	third, err := svc.Remaining(ctx, orgID, "LLP A", enums.SpeciesPOP, 2026)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if !third.RemainingLbs.Equal(lbs(1)) {
		t.Fatalf("expected recomputed row, got %s", third.RemainingLbs)
	}
}

func TestForPermitReturnsAllTargetSpecies(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepository{
		allocations: []models.VesselAllocation{
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, AllocationLbs: lbs(50000)},
		},
	}
	svc, err := NewService(repo, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	rows, err := svc.ForPermit(context.Background(), orgID, "LLP A", 2026)
	if err != nil {
		t.Fatalf("ForPermit: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.SpeciesCode == enums.SpeciesPOP && !row.AllocationLbs.Equal(lbs(50000)) {
			t.Fatalf("POP allocation: got %s", row.AllocationLbs)
		}
		if row.SpeciesCode != enums.SpeciesPOP && !row.AllocationLbs.IsZero() {
			t.Fatalf("expected zero allocation for %s", row.Species)
		}
	}
}

func TestFleetDecoratesAndFlagsRisk(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepository{
		members: []models.CoopMember{
			{OrgID: orgID, LLP: "LLP A", VesselName: "F/V Kodiak Dawn", CoopCode: "NPFC"},
			{OrgID: orgID, LLP: "LLP B", VesselName: "F/V Northern Star", CoopCode: "NPFC"},
		},
		allocations: []models.VesselAllocation{
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, AllocationLbs: lbs(10000)},
			{OrgID: orgID, LLP: "LLP B", SpeciesCode: enums.SpeciesPOP, Year: 2026, AllocationLbs: lbs(10000)},
		},
		harvests: []models.Harvest{
			// LLP A has 5% remaining: critical
			{OrgID: orgID, LLP: "LLP A", SpeciesCode: enums.SpeciesPOP, Year: 2026, Pounds: lbs(9500)},
			// LLP B has 80% remaining: ok
			{OrgID: orgID, LLP: "LLP B", SpeciesCode: enums.SpeciesPOP, Year: 2026, Pounds: lbs(2000)},
		},
	}
	svc, err := NewService(repo, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	fleet, err := svc.Fleet(context.Background(), orgID, 2026)
	if err != nil {
		t.Fatalf("Fleet: %v", err)
	}
	// 2 members x 3 target species
	if len(fleet) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(fleet))
	}

	byKey := map[string]FleetRow{}
	for _, row := range fleet {
		byKey[row.LLP+"/"+row.Species] = row
	}

	a := byKey["LLP A/POP"]
	if a.VesselName != "F/V Kodiak Dawn" || a.CoopCode != "NPFC" {
		t.Fatalf("missing vessel decoration: %+v", a)
	}
	if a.RiskLevel != enums.RiskCritical {
		t.Fatalf("LLP A risk: got %s, want critical", a.RiskLevel)
	}
	if byKey["LLP B/POP"].RiskLevel != enums.RiskOK {
		t.Fatalf("LLP B risk: got %s, want ok", byKey["LLP B/POP"].RiskLevel)
	}
	if byKey["LLP A/NR"].RiskLevel != enums.RiskNotApplicable {
		t.Fatalf("no-allocation risk: got %s, want na", byKey["LLP A/NR"].RiskLevel)
	}
}
