package reports

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/internal/ledger"
	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
)

type fakeRepo struct {
	balances []models.AccountBalance
	details  []models.AccountDetail
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreateBalances(_ context.Context, balances []models.AccountBalance) error {
	for i := range balances {
		balances[i].ID = uuid.New()
	}
	f.balances = append(f.balances, balances...)
	return nil
}

func (f *fakeRepo) BalancesExist(_ context.Context, orgID uuid.UUID, balanceDate time.Time, coopCodes []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, balance := range f.balances {
		if balance.OrgID != orgID || !balance.BalanceDate.Equal(balanceDate) {
			continue
		}
		seen[balance.CoopCode] = struct{}{}
	}
	var found []string
	for _, code := range coopCodes {
		if _, ok := seen[code]; ok {
			found = append(found, code)
		}
	}
	return found, nil
}

func (f *fakeRepo) ListBalances(_ context.Context, orgID uuid.UUID, filter BalanceFilter) ([]models.AccountBalance, error) {
	var out []models.AccountBalance
	for _, balance := range f.balances {
		if balance.OrgID != orgID {
			continue
		}
		if filter.CoopCode != "" && balance.CoopCode != filter.CoopCode {
			continue
		}
		out = append(out, balance)
	}
	return out, nil
}

func (f *fakeRepo) LatestBalanceDate(_ context.Context, orgID uuid.UUID) (*time.Time, error) {
	var latest *time.Time
	for _, balance := range f.balances {
		if balance.OrgID != orgID {
			continue
		}
		date := balance.BalanceDate
		if latest == nil || date.After(*latest) {
			latest = &date
		}
	}
	return latest, nil
}

func (f *fakeRepo) CreateDetails(_ context.Context, details []models.AccountDetail) error {
	for i := range details {
		details[i].ID = uuid.New()
	}
	f.details = append(f.details, details...)
	return nil
}

func (f *fakeRepo) ListDetails(_ context.Context, orgID uuid.UUID, filter DetailFilter) ([]models.AccountDetail, error) {
	var out []models.AccountDetail
	for _, detail := range f.details {
		if detail.OrgID != orgID {
			continue
		}
		out = append(out, detail)
	}
	return out, nil
}

type fakeLedger struct {
	fleet []ledger.FleetRow
}

func (f *fakeLedger) Remaining(_ context.Context, _ uuid.UUID, _ string, _ enums.SpeciesCode, _ int) (*ledger.Row, error) {
	return nil, nil
}

func (f *fakeLedger) ForPermit(_ context.Context, _ uuid.UUID, _ string, _ int) ([]ledger.Row, error) {
	return nil, nil
}

func (f *fakeLedger) Fleet(_ context.Context, _ uuid.UUID, _ int) ([]ledger.FleetRow, error) {
	return f.fleet, nil
}

func (f *fakeLedger) Invalidate(_ context.Context, _ uuid.UUID) error { return nil }

func fleetRow(llp, vessel, coop string, code enums.SpeciesCode, remaining int64, risk enums.RiskLevel) ledger.FleetRow {
	return ledger.FleetRow{
		Row: ledger.Row{
			LLP:          llp,
			SpeciesCode:  code,
			Species:      code.ShortName(),
			Year:         2026,
			RemainingLbs: decimal.NewFromInt(remaining),
		},
		VesselName: vessel,
		CoopCode:   coop,
		RiskLevel:  risk,
	}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code, fragment string) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
	if !strings.Contains(typed.Message(), fragment) {
		t.Fatalf("expected message containing %q, got %q", fragment, typed.Message())
	}
}

func TestDashboardPivotsFleetRows(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	led := &fakeLedger{fleet: []ledger.FleetRow{
		fleetRow("LLP 2001", "F/V Aurora", "Silver Bay", enums.SpeciesPOP, 1500000, enums.RiskOK),
		fleetRow("LLP 2001", "F/V Aurora", "Silver Bay", enums.SpeciesNR, 4200, enums.RiskCritical),
		fleetRow("LLP 2001", "F/V Aurora", "Silver Bay", enums.SpeciesDusky, 0, enums.RiskNotApplicable),
		fleetRow("LLP 1001", "F/V Westward", "North Pacific", enums.SpeciesPOP, 82000, enums.RiskWarning),
	}}
	svc := NewService(&fakeRepo{}, led, nil)

	view, err := svc.Dashboard(ctx, orgID, 2026, "")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if view.Permits != 2 || len(view.Rows) != 2 {
		t.Fatalf("expected 2 permit rows, got %d", len(view.Rows))
	}
	// Sorted by cooperative, then permit.
	if view.Rows[0].CoopCode != "North Pacific" || view.Rows[1].CoopCode != "Silver Bay" {
		t.Fatalf("unexpected order: %s, %s", view.Rows[0].CoopCode, view.Rows[1].CoopCode)
	}

	aurora := view.Rows[1]
	if aurora.POP.Display != "1.5M" {
		t.Fatalf("POP display: got %q, want 1.5M", aurora.POP.Display)
	}
	if aurora.NR.Display != "4.2K" || aurora.NR.RiskLevel != enums.RiskCritical {
		t.Fatalf("NR cell: got %q/%s", aurora.NR.Display, aurora.NR.RiskLevel)
	}
	if !aurora.AtRisk {
		t.Fatal("expected critical NR balance to flag the vessel")
	}
	if view.AtRisk != 1 {
		t.Fatalf("at-risk count: got %d, want 1", view.AtRisk)
	}
	if view.Rows[0].AtRisk {
		t.Fatal("warning-level vessel should not be flagged at risk")
	}
}

func TestDashboardCoopFilter(t *testing.T) {
	ctx := context.Background()
	led := &fakeLedger{fleet: []ledger.FleetRow{
		fleetRow("LLP 2001", "F/V Aurora", "Silver Bay", enums.SpeciesPOP, 100000, enums.RiskOK),
		fleetRow("LLP 1001", "F/V Westward", "North Pacific", enums.SpeciesPOP, 82000, enums.RiskOK),
	}}
	svc := NewService(&fakeRepo{}, led, nil)

	view, err := svc.Dashboard(ctx, uuid.New(), 2026, "Silver Bay")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(view.Rows) != 1 || view.Rows[0].LLP != "LLP 2001" {
		t.Fatalf("expected only the Silver Bay permit, got %+v", view.Rows)
	}
}

const balanceHeader = "Balance Date,Account Id,Account Name,Species Group,Species Group Id,Initial Quota,Transfers In,Transfers Out,Total Quota,Total Catch,Remaining Quota,Percent Taken,Quota Pool Type Code"

func TestImportAccountBalances(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeLedger{}, nil)

	file := strings.Join([]string{
		balanceHeader,
		`2026-08-15,ACC-1,CGOA CV Coop Silver Bay,Pacific Ocean Perch,141,"1,200,000","50,000",0,"1,250,000","400,000","850,000",32.00,CQ`,
		"2026-08-15,ACC-2,CGOA CV Coop North Pacific,Northern Rockfish,136,300000,0,10000,290000,120000,170000,41.38,CQ",
	}, "\n")

	result, err := svc.ImportAccountBalances(ctx, orgID, strings.NewReader(file), "coopaccountbalance_0815.csv")
	if err != nil {
		t.Fatalf("ImportAccountBalances: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported: got %d, want 2", result.Imported)
	}
	if result.BalanceDate != "2026-08-15" {
		t.Fatalf("balance date: got %s", result.BalanceDate)
	}
	if len(result.Coops) != 2 || result.Coops[0] != "North Pacific" || result.Coops[1] != "Silver Bay" {
		t.Fatalf("coops: got %v", result.Coops)
	}

	if len(repo.balances) != 2 {
		t.Fatalf("expected 2 stored rows, got %d", len(repo.balances))
	}
	first := repo.balances[0]
	if first.CoopCode != "Silver Bay" {
		t.Fatalf("coop extraction: got %q", first.CoopCode)
	}
	if !first.InitialQuota.Equal(decimal.NewFromInt(1200000)) {
		t.Fatalf("initial quota: got %s", first.InitialQuota)
	}
	if first.SourceFile == nil || *first.SourceFile != "coopaccountbalance_0815.csv" {
		t.Fatal("expected source file recorded")
	}
	if first.AccountName == nil || *first.AccountName != "CGOA CV Coop Silver Bay" {
		t.Fatal("expected account name retained")
	}
}

func TestImportAccountBalancesRejectsDuplicateSnapshot(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeLedger{}, nil)

	file := balanceHeader + "\n" +
		"2026-08-15,ACC-1,CGOA CV Coop Silver Bay,Pacific Ocean Perch,141,1000,0,0,1000,0,1000,0.00,CQ"

	if _, err := svc.ImportAccountBalances(ctx, orgID, strings.NewReader(file), "first.csv"); err != nil {
		t.Fatalf("first import: %v", err)
	}
	_, err := svc.ImportAccountBalances(ctx, orgID, strings.NewReader(file), "second.csv")
	expectCode(t, err, pkgerrors.CodeConflict, "Data already exists for: Silver Bay")
	if len(repo.balances) != 1 {
		t.Fatalf("duplicate import must not write, have %d rows", len(repo.balances))
	}
}

func TestImportAccountBalancesRejectsMixedDates(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeLedger{}, nil)

	file := strings.Join([]string{
		balanceHeader,
		"2026-08-15,ACC-1,CGOA CV Coop Silver Bay,Pacific Ocean Perch,141,1000,0,0,1000,0,1000,0.00,CQ",
		"2026-08-16,ACC-1,CGOA CV Coop Silver Bay,Pacific Ocean Perch,141,1000,0,0,1000,0,1000,0.00,CQ",
	}, "\n")

	_, err := svc.ImportAccountBalances(context.Background(), uuid.New(), strings.NewReader(file), "mixed.csv")
	expectCode(t, err, pkgerrors.CodeValidation, "more than one balance date")
}

func TestImportAccountBalancesMissingColumns(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeLedger{}, nil)

	file := "Balance Date,Account Name\n2026-08-15,CGOA CV Coop Silver Bay"
	_, err := svc.ImportAccountBalances(context.Background(), uuid.New(), strings.NewReader(file), "bad.csv")
	expectCode(t, err, pkgerrors.CodeValidation, "Missing required columns")
}

func TestImportAccountBalancesEmptyFile(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeLedger{}, nil)

	_, err := svc.ImportAccountBalances(context.Background(), uuid.New(), strings.NewReader(balanceHeader), "empty.csv")
	expectCode(t, err, pkgerrors.CodeValidation, "File is empty or contains no data rows")
}

func TestImportAccountDetail(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeLedger{}, nil)

	file := strings.Join([]string{
		"Catch Activity Date,Vessel Name,ADFG,Species Name,Species Code,Weight Posted,Processor Permit,Landing Date,Report Number,Gear Code,Reporting Area",
		`08/14/2026,F/V Aurora,55123,Pacific Ocean Perch,141,"12,500.50",PROC-9,08/15/2026,RPT-100,07,630`,
		"08/14/2026,F/V Westward,,Northern Rockfish,136,800,,,,,",
	}, "\n")

	result, err := svc.ImportAccountDetail(ctx, orgID, strings.NewReader(file), "coopaccountdetail_0814.csv")
	if err != nil {
		t.Fatalf("ImportAccountDetail: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported: got %d, want 2", result.Imported)
	}

	first := repo.details[0]
	if first.VesselName != "F/V Aurora" || first.SpeciesCode != 141 {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if !first.WeightPosted.Equal(decimal.NewFromFloat(12500.50)) {
		t.Fatalf("weight: got %s", first.WeightPosted)
	}
	if first.LandingDate == nil || first.LandingDate.Format("2006-01-02") != "2026-08-15" {
		t.Fatal("expected landing date parsed")
	}

	second := repo.details[1]
	if second.ADFG != nil || second.ProcessorPermit != nil || second.LandingDate != nil {
		t.Fatal("blank optional fields must stay nil")
	}
}

func TestImportAccountDetailRowErrors(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeLedger{}, nil)

	file := strings.Join([]string{
		"Catch Activity Date,Vessel Name,Species Name,Species Code,Weight Posted",
		"not-a-date,F/V Aurora,Pacific Ocean Perch,141,500",
		"08/14/2026,F/V Aurora,Pacific Ocean Perch,abc,500",
	}, "\n")

	_, err := svc.ImportAccountDetail(context.Background(), uuid.New(), strings.NewReader(file), "bad.csv")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(typed.Message(), "Row 2: invalid Catch Activity Date") {
		t.Fatalf("missing row 2 error: %q", typed.Message())
	}
	if !strings.Contains(typed.Message(), "Row 3: invalid Species Code") {
		t.Fatalf("missing row 3 error: %q", typed.Message())
	}
}
