package reports

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/internal/ledger"
	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
)

type Service interface {
	Dashboard(ctx context.Context, orgID uuid.UUID, year int, coopCode string) (*DashboardView, error)
	ImportAccountBalances(ctx context.Context, orgID uuid.UUID, file io.Reader, sourceFile string) (*BalanceImportResult, error)
	ImportAccountDetail(ctx context.Context, orgID uuid.UUID, file io.Reader, sourceFile string) (*DetailImportResult, error)
	ListBalances(ctx context.Context, orgID uuid.UUID, filter BalanceFilter) ([]models.AccountBalance, error)
	ListDetails(ctx context.Context, orgID uuid.UUID, filter DetailFilter) ([]models.AccountDetail, error)
}

// SpeciesCell is one species column of a dashboard row.
type SpeciesCell struct {
	RemainingLbs decimal.Decimal `json:"remaining_lbs"`
	Display      string          `json:"display"`
	RiskLevel    enums.RiskLevel `json:"risk_level"`
}

// DashboardRow pivots a permit's ledger rows into one row with a column
// per target species.
type DashboardRow struct {
	CoopCode   string      `json:"coop_code"`
	LLP        string      `json:"llp"`
	VesselName string      `json:"vessel_name"`
	POP        SpeciesCell `json:"pop"`
	NR         SpeciesCell `json:"nr"`
	Dusky      SpeciesCell `json:"dusky"`
	AtRisk     bool        `json:"at_risk"`
}

type DashboardView struct {
	Year    int            `json:"year"`
	Rows    []DashboardRow `json:"rows"`
	AtRisk  int            `json:"at_risk_count"`
	Permits int            `json:"permit_count"`
}

type BalanceImportResult struct {
	Imported    int      `json:"imported"`
	BalanceDate string   `json:"balance_date"`
	Coops       []string `json:"coops"`
	SourceFile  string   `json:"source_file"`
}

type DetailImportResult struct {
	Imported   int    `json:"imported"`
	SourceFile string `json:"source_file"`
}

type service struct {
	repo   Repository
	ledger ledger.Service
	log    *logger.Logger
}

func NewService(repo Repository, ledgerService ledger.Service, log *logger.Logger) Service {
	return &service{repo: repo, ledger: ledgerService, log: log}
}

func (s *service) Dashboard(ctx context.Context, orgID uuid.UUID, year int, coopCode string) (*DashboardView, error) {
	if year == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Year is required.")
	}

	fleet, err := s.ledger.Fleet(ctx, orgID, year)
	if err != nil {
		return nil, err
	}

	byLLP := make(map[string]*DashboardRow)
	var order []string
	for _, row := range fleet {
		if coopCode != "" && row.CoopCode != coopCode {
			continue
		}
		dash, ok := byLLP[row.LLP]
		if !ok {
			dash = &DashboardRow{
				CoopCode:   row.CoopCode,
				LLP:        row.LLP,
				VesselName: row.VesselName,
			}
			byLLP[row.LLP] = dash
			order = append(order, row.LLP)
		}

		cell := SpeciesCell{
			RemainingLbs: row.RemainingLbs,
			Display:      FormatLbs(row.RemainingLbs),
			RiskLevel:    row.RiskLevel,
		}
		switch row.SpeciesCode {
		case enums.SpeciesPOP:
			dash.POP = cell
		case enums.SpeciesNR:
			dash.NR = cell
		case enums.SpeciesDusky:
			dash.Dusky = cell
		}
		if row.RiskLevel == enums.RiskCritical {
			dash.AtRisk = true
		}
	}

	view := &DashboardView{Year: year}
	for _, llp := range order {
		row := byLLP[llp]
		view.Rows = append(view.Rows, *row)
		if row.AtRisk {
			view.AtRisk++
		}
	}
	sort.Slice(view.Rows, func(i, j int) bool {
		if view.Rows[i].CoopCode != view.Rows[j].CoopCode {
			return view.Rows[i].CoopCode < view.Rows[j].CoopCode
		}
		return view.Rows[i].LLP < view.Rows[j].LLP
	})
	view.Permits = len(view.Rows)
	return view, nil
}

func (s *service) ImportAccountBalances(ctx context.Context, orgID uuid.UUID, file io.Reader, sourceFile string) (*BalanceImportResult, error) {
	rows, err := ParseAccountBalances(file)
	if err != nil {
		return nil, err
	}

	// Exports carry one snapshot date per file.
	balanceDate := rows[0].BalanceDate
	for _, row := range rows {
		if !row.BalanceDate.Equal(balanceDate) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				"File contains more than one balance date; upload one snapshot at a time.")
		}
	}

	coopSet := make(map[string]struct{})
	var coops []string
	for _, row := range rows {
		if _, ok := coopSet[row.CoopCode]; !ok {
			coopSet[row.CoopCode] = struct{}{}
			coops = append(coops, row.CoopCode)
		}
	}
	sort.Strings(coops)

	existing, err := s.repo.BalancesExist(ctx, orgID, balanceDate, coops)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Could not check for existing balances.")
	}
	if len(existing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("Data already exists for: %s.", strings.Join(existing, ", ")))
	}

	balances := make([]models.AccountBalance, 0, len(rows))
	for _, row := range rows {
		accountName := row.AccountName
		balances = append(balances, models.AccountBalance{
			OrgID:          orgID,
			CoopCode:       row.CoopCode,
			SpeciesGroup:   row.SpeciesGroup,
			BalanceDate:    row.BalanceDate,
			InitialQuota:   row.InitialQuota,
			TransfersIn:    row.TransfersIn,
			TransfersOut:   row.TransfersOut,
			TotalQuota:     row.TotalQuota,
			TotalCatch:     row.TotalCatch,
			RemainingQuota: row.RemainingQuota,
			PercentTaken:   row.PercentTaken,
			AccountName:    &accountName,
			SourceFile:     optional(sourceFile),
		})
	}
	if err := s.repo.CreateBalances(ctx, balances); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Could not save balance snapshot.")
	}

	if s.log != nil {
		ctx = s.log.WithFields(ctx, map[string]any{
			"org_id":       orgID.String(),
			"balance_date": balanceDate.Format("2006-01-02"),
			"imported":     len(balances),
			"source_file":  sourceFile,
		})
		s.log.Info(ctx, "account balance import complete")
	}

	return &BalanceImportResult{
		Imported:    len(balances),
		BalanceDate: balanceDate.Format("2006-01-02"),
		Coops:       coops,
		SourceFile:  sourceFile,
	}, nil
}

func (s *service) ImportAccountDetail(ctx context.Context, orgID uuid.UUID, file io.Reader, sourceFile string) (*DetailImportResult, error) {
	rows, err := ParseAccountDetail(file)
	if err != nil {
		return nil, err
	}

	details := make([]models.AccountDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, models.AccountDetail{
			OrgID:             orgID,
			CatchActivityDate: row.CatchActivityDate,
			VesselName:        row.VesselName,
			ADFG:              row.ADFG,
			SpeciesName:       row.SpeciesName,
			SpeciesCode:       row.SpeciesCode,
			WeightPosted:      row.WeightPosted,
			ProcessorPermit:   row.ProcessorPermit,
			LandingDate:       row.LandingDate,
			ReportNumber:      row.ReportNumber,
			GearCode:          row.GearCode,
			ReportingArea:     row.ReportingArea,
			SourceFile:        optional(sourceFile),
		})
	}
	if err := s.repo.CreateDetails(ctx, details); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Could not save account detail rows.")
	}

	if s.log != nil {
		ctx = s.log.WithFields(ctx, map[string]any{
			"org_id":      orgID.String(),
			"imported":    len(details),
			"source_file": sourceFile,
		})
		s.log.Info(ctx, "account detail import complete")
	}

	return &DetailImportResult{Imported: len(details), SourceFile: sourceFile}, nil
}

func (s *service) ListBalances(ctx context.Context, orgID uuid.UUID, filter BalanceFilter) ([]models.AccountBalance, error) {
	return s.repo.ListBalances(ctx, orgID, filter)
}

func (s *service) ListDetails(ctx context.Context, orgID uuid.UUID, filter DetailFilter) ([]models.AccountDetail, error) {
	return s.repo.ListDetails(ctx, orgID, filter)
}
