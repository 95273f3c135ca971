package harvests

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/pagination"
)

type fakeRepo struct {
	harvests []models.Harvest
	members  map[string]struct{}
}

func newFakeRepo(llps ...string) *fakeRepo {
	members := make(map[string]struct{}, len(llps))
	for _, llp := range llps {
		members[llp] = struct{}{}
	}
	return &fakeRepo{members: members}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(_ context.Context, harvest *models.Harvest) error {
	harvest.ID = uuid.New()
	f.harvests = append(f.harvests, *harvest)
	return nil
}

func (f *fakeRepo) CreateBatch(_ context.Context, harvests []models.Harvest) error {
	for i := range harvests {
		harvests[i].ID = uuid.New()
	}
	f.harvests = append(f.harvests, harvests...)
	return nil
}

func (f *fakeRepo) List(_ context.Context, orgID uuid.UUID, filter ListFilter) ([]models.Harvest, *pagination.Cursor, error) {
	var out []models.Harvest
	for _, harvest := range f.harvests {
		if harvest.OrgID != orgID || harvest.IsDeleted {
			continue
		}
		if filter.LLP != "" && harvest.LLP != filter.LLP {
			continue
		}
		if filter.SpeciesCode != 0 && harvest.SpeciesCode != filter.SpeciesCode {
			continue
		}
		if filter.Year != 0 && harvest.Year != filter.Year {
			continue
		}
		out = append(out, harvest)
	}
	normalized := pagination.NormalizeLimit(filter.Limit)
	if len(out) > normalized {
		next := out[normalized]
		return out[:normalized], &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return out, nil, nil
}

func (f *fakeRepo) FindExisting(_ context.Context, orgID uuid.UUID, keys []DuplicateKey) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	for _, harvest := range f.harvests {
		if harvest.OrgID != orgID || harvest.IsDeleted {
			continue
		}
		key := DuplicateKey{
			LLP:         harvest.LLP,
			SpeciesCode: harvest.SpeciesCode,
			HarvestDate: harvest.HarvestDate,
			Pounds:      harvest.Pounds,
		}
		for _, candidate := range keys {
			if candidate.String() == key.String() {
				existing[key.String()] = struct{}{}
			}
		}
	}
	return existing, nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, orgID, id uuid.UUID) error {
	for i := range f.harvests {
		if f.harvests[i].ID == id && f.harvests[i].OrgID == orgID && !f.harvests[i].IsDeleted {
			f.harvests[i].IsDeleted = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListMemberLLPs(_ context.Context, _ uuid.UUID) (map[string]struct{}, error) {
	return f.members, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(_ context.Context, _ uuid.UUID) error {
	f.calls++
	return nil
}

func newTestService(repo *fakeRepo, cache *fakeInvalidator) Service {
	var inv cacheInvalidator
	if cache != nil {
		inv = cache
	}
	return NewService(repo, inv, nil, nil)
}

func TestCreateHarvestInvalidatesLedger(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo("LLP 100")
	cache := &fakeInvalidator{}
	svc := newTestService(repo, cache)

	harvest, err := svc.Create(ctx, orgID, CreateHarvestInput{
		LLP:         "LLP 100",
		SpeciesCode: enums.SpeciesPOP,
		HarvestDate: time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
		Pounds:      decimal.NewFromInt(12000),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if harvest.Year != 2026 {
		t.Fatalf("expected year derived from harvest date, got %d", harvest.Year)
	}
	if cache.calls != 1 {
		t.Fatalf("expected ledger invalidation, got %d calls", cache.calls)
	}
}

func TestCreateHarvestRejectsUnknownSpecies(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeRepo("LLP 100"), nil)

	_, err := svc.Create(ctx, uuid.New(), CreateHarvestInput{
		LLP:         "LLP 100",
		SpeciesCode: enums.SpeciesCode(999),
		HarvestDate: time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
		Pounds:      decimal.NewFromInt(100),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListSumsTotals(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo("LLP 100")
	svc := newTestService(repo, nil)

	for _, pounds := range []int64{1000, 2500} {
		if _, err := svc.Create(ctx, orgID, CreateHarvestInput{
			LLP:         "LLP 100",
			SpeciesCode: enums.SpeciesPOP,
			HarvestDate: time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
			Pounds:      decimal.NewFromInt(pounds),
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	result, err := svc.List(ctx, orgID, ListFilter{LLP: "LLP 100"}, pagination.Params{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(result.Harvests) != 2 {
		t.Fatalf("expected 2 harvests, got %d", len(result.Harvests))
	}
	if !result.TotalPounds.Equal(decimal.NewFromInt(3500)) {
		t.Fatalf("expected total 3500, got %s", result.TotalPounds)
	}
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo("LLP 100")
	svc := newTestService(repo, nil)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, orgID, CreateHarvestInput{
			LLP:         "LLP 100",
			SpeciesCode: enums.SpeciesPOP,
			HarvestDate: time.Date(2026, 7, 14+i, 0, 0, 0, 0, time.UTC),
			Pounds:      decimal.NewFromInt(100),
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	result, err := svc.List(ctx, orgID, ListFilter{}, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(result.Harvests) != 2 {
		t.Fatalf("expected 2 harvests, got %d", len(result.Harvests))
	}
	if result.NextCursor == "" {
		t.Fatal("expected a next cursor")
	}

	if _, err := svc.List(ctx, orgID, ListFilter{}, pagination.Params{Cursor: "not-base64!"}); pkgerrors.As(err) == nil {
		t.Fatal("expected validation error for bad cursor")
	}
}

func TestImportEFishInsertsAndInvalidates(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo("LLP 100", "LLP 200")
	cache := &fakeInvalidator{}
	svc := newTestService(repo, cache)

	input := efishHeader + "\n" +
		"2026-07-14,F/V Aurora,LLP 100,141,POP,12500.50,0.42,Trident\n" +
		"2026-07-15,F/V Kodiak Star,LLP 200,136,NR,800,,OBI\n"

	result, err := svc.ImportEFish(ctx, orgID, strings.NewReader(input), "efish_jul.csv")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if cache.calls != 1 {
		t.Fatalf("expected 1 invalidation, got %d", cache.calls)
	}

	if len(repo.harvests) != 2 {
		t.Fatalf("expected 2 rows persisted, got %d", len(repo.harvests))
	}
	first := repo.harvests[0]
	if first.SourceFile == nil || *first.SourceFile != "efish_jul.csv" {
		t.Fatalf("expected source file recorded, got %v", first.SourceFile)
	}
	if first.ProcessorCode == nil || *first.ProcessorCode != "Trident" {
		t.Fatalf("expected processor recorded, got %v", first.ProcessorCode)
	}
	if first.Year != 2026 {
		t.Fatalf("expected year 2026, got %d", first.Year)
	}
}

func TestImportEFishSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo("LLP 100")
	svc := newTestService(repo, nil)

	input := efishHeader + "\n" +
		"2026-07-14,F/V Aurora,LLP 100,141,POP,500,,Trident\n"

	if _, err := svc.ImportEFish(ctx, orgID, strings.NewReader(input), "first.csv"); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	// Re-uploading the same file must not double-count the landing.
	result, err := svc.ImportEFish(ctx, orgID, strings.NewReader(input), "second.csv")
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if result.Imported != 0 || result.Skipped != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.SkippedRows) != 1 || result.SkippedRows[0] != 2 {
		t.Fatalf("expected row 2 skipped, got %v", result.SkippedRows)
	}
	if len(repo.harvests) != 1 {
		t.Fatalf("expected 1 persisted row, got %d", len(repo.harvests))
	}
}

func TestImportEFishDeduplicatesWithinFile(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo("LLP 100")
	svc := newTestService(repo, nil)

	input := efishHeader + "\n" +
		"2026-07-14,F/V Aurora,LLP 100,141,POP,500,,Trident\n" +
		"2026-07-14,F/V Aurora,LLP 100,141,POP,500,,Trident\n"

	result, err := svc.ImportEFish(ctx, orgID, strings.NewReader(input), "dup.csv")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestImportEFishRejectsUnknownVessel(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo("LLP 100")
	svc := newTestService(repo, nil)

	input := efishHeader + "\n" +
		"2026-07-14,F/V Aurora,LLP 999,141,POP,500,,Trident\n"

	_, err := svc.ImportEFish(ctx, orgID, strings.NewReader(input), "bad.csv")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(typed.Message(), "unknown vessel_id: LLP 999") {
		t.Fatalf("unexpected message %q", typed.Message())
	}
	if len(repo.harvests) != 0 {
		t.Fatalf("expected no writes, found %d", len(repo.harvests))
	}
}

func TestSoftDeleteHarvestInvalidatesLedger(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo("LLP 100")
	cache := &fakeInvalidator{}
	svc := newTestService(repo, cache)

	harvest, err := svc.Create(ctx, orgID, CreateHarvestInput{
		LLP:         "LLP 100",
		SpeciesCode: enums.SpeciesPOP,
		HarvestDate: time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
		Pounds:      decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.SoftDelete(ctx, orgID, harvest.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if cache.calls != 2 {
		t.Fatalf("expected 2 invalidations, got %d", cache.calls)
	}

	err = svc.SoftDelete(ctx, orgID, harvest.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}
