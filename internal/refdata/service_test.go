package refdata

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
)

type fakeRepo struct {
	coops   map[uuid.UUID]*models.Cooperative
	seasons map[uuid.UUID]*models.Season
	species map[uuid.UUID]*models.Species
	vessels map[uuid.UUID]*models.Vessel
	members map[uuid.UUID]*models.CoopMember
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		coops:   map[uuid.UUID]*models.Cooperative{},
		seasons: map[uuid.UUID]*models.Season{},
		species: map[uuid.UUID]*models.Species{},
		vessels: map[uuid.UUID]*models.Vessel{},
		members: map[uuid.UUID]*models.CoopMember{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreateCooperative(_ context.Context, coop *models.Cooperative) error {
	coop.ID = uuid.New()
	f.coops[coop.ID] = coop
	return nil
}

func (f *fakeRepo) ListCooperatives(_ context.Context, orgID uuid.UUID) ([]models.Cooperative, error) {
	var out []models.Cooperative
	for _, coop := range f.coops {
		if coop.OrgID == orgID {
			out = append(out, *coop)
		}
	}
	return out, nil
}

func (f *fakeRepo) SaveCooperative(_ context.Context, coop *models.Cooperative) error {
	f.coops[coop.ID] = coop
	return nil
}

func (f *fakeRepo) GetCooperative(_ context.Context, orgID, id uuid.UUID) (*models.Cooperative, error) {
	coop, ok := f.coops[id]
	if !ok || coop.OrgID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return coop, nil
}

func (f *fakeRepo) CreateSeason(_ context.Context, season *models.Season) error {
	season.ID = uuid.New()
	f.seasons[season.ID] = season
	return nil
}

func (f *fakeRepo) ListSeasons(_ context.Context, orgID uuid.UUID) ([]models.Season, error) {
	var out []models.Season
	for _, season := range f.seasons {
		if season.OrgID == orgID {
			out = append(out, *season)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetSeason(_ context.Context, orgID, id uuid.UUID) (*models.Season, error) {
	season, ok := f.seasons[id]
	if !ok || season.OrgID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return season, nil
}

func (f *fakeRepo) DeactivateSeasons(_ context.Context, orgID uuid.UUID) error {
	for _, season := range f.seasons {
		if season.OrgID == orgID {
			season.IsActive = false
		}
	}
	return nil
}

func (f *fakeRepo) SaveSeason(_ context.Context, season *models.Season) error {
	f.seasons[season.ID] = season
	return nil
}

func (f *fakeRepo) CreateSpecies(_ context.Context, species *models.Species) error {
	species.ID = uuid.New()
	f.species[species.ID] = species
	return nil
}

func (f *fakeRepo) ListSpecies(_ context.Context) ([]models.Species, error) {
	var out []models.Species
	for _, species := range f.species {
		out = append(out, *species)
	}
	return out, nil
}

func (f *fakeRepo) FindSpeciesByCode(_ context.Context, code int) (*models.Species, error) {
	for _, species := range f.species {
		if species.Code == code {
			return species, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) SaveSpecies(_ context.Context, species *models.Species) error {
	f.species[species.ID] = species
	return nil
}

func (f *fakeRepo) CreateVessel(_ context.Context, vessel *models.Vessel) error {
	vessel.ID = uuid.New()
	f.vessels[vessel.ID] = vessel
	return nil
}

func (f *fakeRepo) ListVessels(_ context.Context, orgID uuid.UUID) ([]models.Vessel, error) {
	var out []models.Vessel
	for _, vessel := range f.vessels {
		if vessel.OrgID == orgID {
			out = append(out, *vessel)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetVessel(_ context.Context, orgID, id uuid.UUID) (*models.Vessel, error) {
	vessel, ok := f.vessels[id]
	if !ok || vessel.OrgID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return vessel, nil
}

func (f *fakeRepo) SaveVessel(_ context.Context, vessel *models.Vessel) error {
	f.vessels[vessel.ID] = vessel
	return nil
}

func (f *fakeRepo) CreateMember(_ context.Context, member *models.CoopMember) error {
	member.ID = uuid.New()
	f.members[member.ID] = member
	return nil
}

func (f *fakeRepo) ListMembers(_ context.Context, orgID uuid.UUID) ([]models.CoopMember, error) {
	var out []models.CoopMember
	for _, member := range f.members {
		if member.OrgID == orgID {
			out = append(out, *member)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetMember(_ context.Context, orgID, id uuid.UUID) (*models.CoopMember, error) {
	member, ok := f.members[id]
	if !ok || member.OrgID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return member, nil
}

func (f *fakeRepo) FindMemberByLLP(_ context.Context, orgID uuid.UUID, llp string) (*models.CoopMember, error) {
	for _, member := range f.members {
		if member.OrgID == orgID && member.LLP == llp {
			return member, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) SaveMember(_ context.Context, member *models.CoopMember) error {
	f.members[member.ID] = member
	return nil
}

func (f *fakeRepo) DeleteMember(_ context.Context, orgID, id uuid.UUID) error {
	member, ok := f.members[id]
	if !ok || member.OrgID != orgID {
		return gorm.ErrRecordNotFound
	}
	delete(f.members, id)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestCreateCooperativeTrimsAndValidates(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo()
	svc := NewService(repo, stubTxRunner{})

	coop, err := svc.CreateCooperative(ctx, orgID, "  NPC  ", " North Pacific Coop ")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if coop.Code != "NPC" || coop.Name != "North Pacific Coop" {
		t.Fatalf("expected trimmed fields, got %+v", coop)
	}

	_, err = svc.CreateCooperative(ctx, orgID, "", "name")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestActivateSeasonDeactivatesOthers(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo()
	svc := NewService(repo, stubTxRunner{})

	first, err := svc.CreateSeason(ctx, orgID, 2025)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := svc.CreateSeason(ctx, orgID, 2026)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.ActivateSeason(ctx, orgID, first.ID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	activated, err := svc.ActivateSeason(ctx, orgID, second.ID)
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if !activated.IsActive {
		t.Fatal("expected season active")
	}
	if repo.seasons[first.ID].IsActive {
		t.Fatal("expected previous season deactivated")
	}
}

func TestActivateSeasonNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(), stubTxRunner{})

	_, err := svc.ActivateSeason(ctx, uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateSpeciesDefaultsUnit(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(), stubTxRunner{})

	species, err := svc.CreateSpecies(ctx, CreateSpeciesInput{
		Code: 200, Name: "Halibut", Abbreviation: "HLBT", IsPSC: true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if species.Unit != enums.AmountUnitPounds {
		t.Fatalf("expected lbs default, got %s", species.Unit)
	}

	_, err = svc.CreateSpecies(ctx, CreateSpeciesInput{
		Code: 201, Name: "Chinook", IsPSC: true, Unit: enums.AmountUnit("each"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad unit, got %v", err)
	}
}

func TestCreateMemberRejectsDuplicateLLP(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	svc := NewService(newFakeRepo(), stubTxRunner{})

	if _, err := svc.CreateMember(ctx, orgID, CreateMemberInput{LLP: "LLP 100", VesselName: "F/V Aurora", CoopCode: "NPC"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := svc.CreateMember(ctx, orgID, CreateMemberInput{LLP: "LLP 100", VesselName: "F/V Other"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateMemberPatchesFields(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	svc := NewService(newFakeRepo(), stubTxRunner{})

	member, err := svc.CreateMember(ctx, orgID, CreateMemberInput{LLP: "LLP 100", VesselName: "F/V Aurora", CoopCode: "NPC"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "F/V Aurora II"
	updated, err := svc.UpdateMember(ctx, orgID, member.ID, UpdateMemberInput{VesselName: &name})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.VesselName != "F/V Aurora II" {
		t.Fatalf("expected renamed vessel, got %q", updated.VesselName)
	}
	if updated.CoopCode != "NPC" {
		t.Fatalf("expected coop code untouched, got %q", updated.CoopCode)
	}
}

func TestVesselNameForLLPUnknownFallback(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	svc := NewService(newFakeRepo(), stubTxRunner{})

	if name := svc.VesselNameForLLP(ctx, orgID, "LLP 999"); name != "Unknown" {
		t.Fatalf("expected Unknown, got %q", name)
	}

	if _, err := svc.CreateMember(ctx, orgID, CreateMemberInput{LLP: "LLP 100", VesselName: "F/V Aurora"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if name := svc.VesselNameForLLP(ctx, orgID, "LLP 100"); name != "F/V Aurora" {
		t.Fatalf("expected vessel name, got %q", name)
	}
}

func TestDeleteMember(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	svc := NewService(newFakeRepo(), stubTxRunner{})

	member, err := svc.CreateMember(ctx, orgID, CreateMemberInput{LLP: "LLP 100"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.DeleteMember(ctx, orgID, member.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	err = svc.DeleteMember(ctx, orgID, member.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
