package refdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the reference tables behind the admin screens. Lookups
// degrade to "Unknown" decoration; writes against bad input are validation
// errors.
type Service interface {
	CreateCooperative(ctx context.Context, orgID uuid.UUID, code, name string) (*models.Cooperative, error)
	ListCooperatives(ctx context.Context, orgID uuid.UUID) ([]models.Cooperative, error)
	RenameCooperative(ctx context.Context, orgID, id uuid.UUID, name string) (*models.Cooperative, error)

	CreateSeason(ctx context.Context, orgID uuid.UUID, year int) (*models.Season, error)
	ListSeasons(ctx context.Context, orgID uuid.UUID) ([]models.Season, error)
	ActivateSeason(ctx context.Context, orgID, id uuid.UUID) (*models.Season, error)

	CreateSpecies(ctx context.Context, input CreateSpeciesInput) (*models.Species, error)
	ListSpecies(ctx context.Context) ([]models.Species, error)

	CreateVessel(ctx context.Context, orgID uuid.UUID, name string, adfg *string) (*models.Vessel, error)
	ListVessels(ctx context.Context, orgID uuid.UUID) ([]models.Vessel, error)

	CreateMember(ctx context.Context, orgID uuid.UUID, input CreateMemberInput) (*models.CoopMember, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.CoopMember, error)
	UpdateMember(ctx context.Context, orgID, id uuid.UUID, input UpdateMemberInput) (*models.CoopMember, error)
	DeleteMember(ctx context.Context, orgID, id uuid.UUID) error
	VesselNameForLLP(ctx context.Context, orgID uuid.UUID, llp string) string
}

// CreateSpeciesInput registers a species reference record. PSC species carry
// the unit bycatch amounts are reported in.
type CreateSpeciesInput struct {
	Code         int
	Name         string
	Abbreviation string
	IsPSC        bool
	Unit         enums.AmountUnit
}

// CreateMemberInput binds a permit to its vessel and cooperative.
type CreateMemberInput struct {
	LLP        string
	VesselName string
	CoopCode   string
	Email      *string
}

// UpdateMemberInput patches a member binding. Nil fields are left unchanged.
type UpdateMemberInput struct {
	VesselName *string
	CoopCode   *string
	Email      *string
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the reference data service. tx is used for season
// activation, which touches every season row for the org.
func NewService(repo Repository, tx txRunner) Service {
	return &service{repo: repo, tx: tx}
}

func (s *service) CreateCooperative(ctx context.Context, orgID uuid.UUID, code, name string) (*models.Cooperative, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cooperative code and name are required.")
	}

	coop := &models.Cooperative{OrgID: orgID, Code: code, Name: name}
	if err := s.repo.CreateCooperative(ctx, coop); err != nil {
		return nil, wrapWriteError(err, "cooperative")
	}
	return coop, nil
}

func (s *service) ListCooperatives(ctx context.Context, orgID uuid.UUID) ([]models.Cooperative, error) {
	coops, err := s.repo.ListCooperatives(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list cooperatives")
	}
	return coops, nil
}

func (s *service) RenameCooperative(ctx context.Context, orgID, id uuid.UUID, name string) (*models.Cooperative, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cooperative name is required.")
	}
	coop, err := s.repo.GetCooperative(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cooperative not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cooperative")
	}
	coop.Name = name
	if err := s.repo.SaveCooperative(ctx, coop); err != nil {
		return nil, wrapWriteError(err, "cooperative")
	}
	return coop, nil
}

func (s *service) CreateSeason(ctx context.Context, orgID uuid.UUID, year int) (*models.Season, error) {
	if year < 2000 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Year is required.")
	}
	season := &models.Season{OrgID: orgID, Year: year}
	if err := s.repo.CreateSeason(ctx, season); err != nil {
		return nil, wrapWriteError(err, "season")
	}
	return season, nil
}

func (s *service) ListSeasons(ctx context.Context, orgID uuid.UUID) ([]models.Season, error) {
	seasons, err := s.repo.ListSeasons(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list seasons")
	}
	return seasons, nil
}

// ActivateSeason makes the season the single active one for the org. The
// deactivate-then-activate pair runs in one transaction.
func (s *service) ActivateSeason(ctx context.Context, orgID, id uuid.UUID) (*models.Season, error) {
	var activated *models.Season
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		season, err := repo.GetSeason(ctx, orgID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "season not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load season")
		}
		if err := repo.DeactivateSeasons(ctx, orgID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to deactivate seasons")
		}
		season.IsActive = true
		if err := repo.SaveSeason(ctx, season); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to activate season")
		}
		activated = season
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}

func (s *service) CreateSpecies(ctx context.Context, input CreateSpeciesInput) (*models.Species, error) {
	if input.Code <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Species code is required.")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Species name is required.")
	}
	unit := input.Unit
	if unit == "" {
		unit = enums.AmountUnitPounds
	}
	if !unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Invalid amount unit %q.", input.Unit))
	}

	species := &models.Species{
		Code:         input.Code,
		Name:         strings.TrimSpace(input.Name),
		Abbreviation: strings.TrimSpace(input.Abbreviation),
		IsPSC:        input.IsPSC,
		Unit:         unit,
	}
	if err := s.repo.CreateSpecies(ctx, species); err != nil {
		return nil, wrapWriteError(err, "species")
	}
	return species, nil
}

func (s *service) ListSpecies(ctx context.Context) ([]models.Species, error) {
	species, err := s.repo.ListSpecies(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list species")
	}
	return species, nil
}

func (s *service) CreateVessel(ctx context.Context, orgID uuid.UUID, name string, adfg *string) (*models.Vessel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Vessel name is required.")
	}
	vessel := &models.Vessel{OrgID: orgID, Name: name, ADFG: adfg}
	if err := s.repo.CreateVessel(ctx, vessel); err != nil {
		return nil, wrapWriteError(err, "vessel")
	}
	return vessel, nil
}

func (s *service) ListVessels(ctx context.Context, orgID uuid.UUID) ([]models.Vessel, error) {
	vessels, err := s.repo.ListVessels(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list vessels")
	}
	return vessels, nil
}

func (s *service) CreateMember(ctx context.Context, orgID uuid.UUID, input CreateMemberInput) (*models.CoopMember, error) {
	llp := strings.TrimSpace(input.LLP)
	if llp == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "LLP is required.")
	}
	if _, err := s.repo.FindMemberByLLP(ctx, orgID, llp); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("Permit %s is already a member.", llp))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check existing member")
	}

	member := &models.CoopMember{
		OrgID:      orgID,
		LLP:        llp,
		VesselName: strings.TrimSpace(input.VesselName),
		CoopCode:   strings.TrimSpace(input.CoopCode),
		Email:      input.Email,
	}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return nil, wrapWriteError(err, "member")
	}
	return member, nil
}

func (s *service) ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.CoopMember, error) {
	members, err := s.repo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list members")
	}
	return members, nil
}

func (s *service) UpdateMember(ctx context.Context, orgID, id uuid.UUID, input UpdateMemberInput) (*models.CoopMember, error) {
	member, err := s.repo.GetMember(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load member")
	}

	if input.VesselName != nil {
		member.VesselName = strings.TrimSpace(*input.VesselName)
	}
	if input.CoopCode != nil {
		member.CoopCode = strings.TrimSpace(*input.CoopCode)
	}
	if input.Email != nil {
		member.Email = input.Email
	}

	if err := s.repo.SaveMember(ctx, member); err != nil {
		return nil, wrapWriteError(err, "member")
	}
	return member, nil
}

func (s *service) DeleteMember(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.repo.DeleteMember(ctx, orgID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete member")
	}
	return nil
}

// VesselNameForLLP resolves the display name for a permit. Unknown permits
// decorate as "Unknown" rather than failing the caller.
func (s *service) VesselNameForLLP(ctx context.Context, orgID uuid.UUID, llp string) string {
	member, err := s.repo.FindMemberByLLP(ctx, orgID, llp)
	if err != nil || member.VesselName == "" {
		return "Unknown"
	}
	return member.VesselName
}

func wrapWriteError(err error, entity string) error {
	if strings.Contains(strings.ToLower(err.Error()), "duplicate key") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("%s already exists", entity))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("failed to save %s", entity))
}
