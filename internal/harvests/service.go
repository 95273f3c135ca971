package harvests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
	"github.com/fishermenfirst/fleetquota-backend/pkg/metrics"
	"github.com/fishermenfirst/fleetquota-backend/pkg/pagination"
)

type cacheInvalidator interface {
	Invalidate(ctx context.Context, orgID uuid.UUID) error
}

// Service records landed catch, by hand or from eFish file uploads. Harvest
// facts are append-only; both paths invalidate the ledger cache.
type Service interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateHarvestInput) (*models.Harvest, error)
	List(ctx context.Context, orgID uuid.UUID, filter ListFilter, page pagination.Params) (*ListResult, error)
	ImportEFish(ctx context.Context, orgID uuid.UUID, file io.Reader, sourceFile string) (*ImportResult, error)
	SoftDelete(ctx context.Context, orgID, id uuid.UUID) error
}

// CreateHarvestInput is a manually entered landing.
type CreateHarvestInput struct {
	LLP           string
	SpeciesCode   enums.SpeciesCode
	HarvestDate   time.Time
	Pounds        decimal.Decimal
	ProcessorCode *string
	ReportNumber  *string
}

// ListResult carries one page of harvest rows plus their summed pounds for
// totals rows. NextCursor is empty on the last page.
type ListResult struct {
	Harvests    []models.Harvest `json:"harvests"`
	TotalPounds decimal.Decimal  `json:"total_pounds"`
	NextCursor  string           `json:"next_cursor,omitempty"`
}

// ImportResult summarizes one eFish file import.
type ImportResult struct {
	Imported    int    `json:"imported"`
	Skipped     int    `json:"skipped"`
	SourceFile  string `json:"source_file"`
	SkippedRows []int  `json:"skipped_rows,omitempty"`
}

type service struct {
	repo         Repository
	cache        cacheInvalidator
	quotaMetrics *metrics.QuotaMetrics
	log          *logger.Logger
}

// NewService wires the harvest service. cache, quotaMetrics and log may be nil.
func NewService(repo Repository, cache cacheInvalidator, quotaMetrics *metrics.QuotaMetrics, log *logger.Logger) Service {
	return &service{repo: repo, cache: cache, quotaMetrics: quotaMetrics, log: log}
}

func (s *service) Create(ctx context.Context, orgID uuid.UUID, input CreateHarvestInput) (*models.Harvest, error) {
	if input.LLP == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "LLP is required.")
	}
	if !isKnownSpecies(input.SpeciesCode) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Unknown species_code: %d", input.SpeciesCode))
	}
	if input.HarvestDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Harvest date is required.")
	}
	if input.Pounds.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Pounds cannot be negative.")
	}

	harvest := &models.Harvest{
		OrgID:         orgID,
		LLP:           input.LLP,
		SpeciesCode:   input.SpeciesCode,
		Year:          input.HarvestDate.Year(),
		HarvestDate:   input.HarvestDate,
		Pounds:        input.Pounds,
		ProcessorCode: input.ProcessorCode,
		ReportNumber:  input.ReportNumber,
	}
	if err := s.repo.Create(ctx, harvest); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to record harvest")
	}
	s.invalidateLedger(ctx, orgID)
	return harvest, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, filter ListFilter, page pagination.Params) (*ListResult, error) {
	filter.Limit = page.Limit
	if page.Cursor != "" {
		cursor, err := pagination.ParseCursor(page.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		filter.Cursor = cursor
	}

	harvests, next, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list harvests")
	}

	total := decimal.Zero
	for _, harvest := range harvests {
		total = total.Add(harvest.Pounds)
	}
	result := &ListResult{Harvests: harvests, TotalPounds: total}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// ImportEFish parses an eFish export, drops rows already recorded, and
// batch-inserts the rest. Rows referencing permits outside the cooperative
// fail the whole file; a partially trusted file is worse than a rejected one.
func (s *service) ImportEFish(ctx context.Context, orgID uuid.UUID, file io.Reader, sourceFile string) (*ImportResult, error) {
	rows, err := ParseEFish(file)
	if err != nil {
		return nil, err
	}

	memberLLPs, err := s.repo.ListMemberLLPs(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cooperative members")
	}

	var refErrors []string
	for _, row := range rows {
		if _, ok := memberLLPs[row.VesselID]; !ok {
			refErrors = append(refErrors, fmt.Sprintf("Row %d: unknown vessel_id: %s", row.RowNumber, row.VesselID))
			continue
		}
		if !isKnownSpecies(enums.SpeciesCode(row.SpeciesCode)) {
			refErrors = append(refErrors, fmt.Sprintf("Row %d: unknown species_code: %d", row.RowNumber, row.SpeciesCode))
		}
	}
	if len(refErrors) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Found %d validation error(s):\n%s",
				len(refErrors), strings.Join(truncateErrors(refErrors, 10), "\n")))
	}

	keys := make([]DuplicateKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, DuplicateKey{
			LLP:         row.VesselID,
			SpeciesCode: enums.SpeciesCode(row.SpeciesCode),
			HarvestDate: row.LandingDate,
			Pounds:      row.Pounds,
		})
	}
	existing, err := s.repo.FindExisting(ctx, orgID, keys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check for duplicate harvests")
	}

	result := &ImportResult{SourceFile: sourceFile}
	seen := make(map[string]struct{}, len(rows))
	harvests := make([]models.Harvest, 0, len(rows))

	for i, row := range rows {
		key := keys[i].String()
		if _, dup := existing[key]; dup {
			result.Skipped++
			result.SkippedRows = append(result.SkippedRows, row.RowNumber)
			continue
		}
		if _, dup := seen[key]; dup {
			result.Skipped++
			result.SkippedRows = append(result.SkippedRows, row.RowNumber)
			continue
		}
		seen[key] = struct{}{}

		harvest := models.Harvest{
			OrgID:        orgID,
			LLP:          row.VesselID,
			SpeciesCode:  enums.SpeciesCode(row.SpeciesCode),
			Year:         row.LandingDate.Year(),
			HarvestDate:  row.LandingDate,
			Pounds:       row.Pounds,
			ReportNumber: row.ReportNumber,
		}
		if row.ProcessorName != "" {
			processor := row.ProcessorName
			harvest.ProcessorCode = &processor
		}
		if sourceFile != "" {
			source := sourceFile
			harvest.SourceFile = &source
		}
		harvests = append(harvests, harvest)
	}
	sort.Ints(result.SkippedRows)

	if err := s.repo.CreateBatch(ctx, harvests); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to insert harvests")
	}
	result.Imported = len(harvests)

	if result.Imported > 0 {
		s.invalidateLedger(ctx, orgID)
		s.quotaMetrics.AddHarvestsImported(result.Imported)
	}
	if s.log != nil {
		ctx = s.log.WithFields(ctx, map[string]any{
			"source_file": sourceFile,
			"imported":    result.Imported,
			"skipped":     result.Skipped,
		})
		s.log.Info(ctx, "efish import complete")
	}
	return result, nil
}

func (s *service) SoftDelete(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, orgID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "harvest not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete harvest")
	}
	s.invalidateLedger(ctx, orgID)
	return nil
}

func (s *service) invalidateLedger(ctx context.Context, orgID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, orgID)
}

func isKnownSpecies(code enums.SpeciesCode) bool {
	return code.IsTransferable() || code.IsPSC()
}
