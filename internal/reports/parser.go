package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
)

// Column headers as they appear in eLandings account exports.
var balanceRequiredColumns = []string{
	"Balance Date",
	"Account Id",
	"Account Name",
	"Species Group",
	"Initial Quota",
	"Transfers In",
	"Transfers Out",
	"Total Quota",
	"Total Catch",
	"Remaining Quota",
}

var detailRequiredColumns = []string{
	"Catch Activity Date",
	"Vessel Name",
	"Species Name",
	"Species Code",
	"Weight Posted",
}

// Account names embed the cooperative, e.g. "CGOA POP CV Coop Silver Bay".
var knownCoopNames = []string{
	"Silver Bay",
	"North Pacific",
	"OBSI",
	"Star of Kodiak",
}

// BalanceRow is one parsed line of a coopaccountbalance export.
type BalanceRow struct {
	BalanceDate    time.Time
	AccountName    string
	CoopCode       string
	SpeciesGroup   string
	InitialQuota   decimal.Decimal
	TransfersIn    decimal.Decimal
	TransfersOut   decimal.Decimal
	TotalQuota     decimal.Decimal
	TotalCatch     decimal.Decimal
	RemainingQuota decimal.Decimal
	PercentTaken   *decimal.Decimal
}

// DetailRow is one parsed line of a coopaccountdetail export.
type DetailRow struct {
	CatchActivityDate time.Time
	VesselName        string
	ADFG              *string
	SpeciesName       string
	SpeciesCode       int
	WeightPosted      decimal.Decimal
	ProcessorPermit   *string
	LandingDate       *time.Time
	ReportNumber      *string
	GearCode          *string
	ReportingArea     *string
}

// CoopFromAccountName extracts the cooperative name embedded in an account
// name. Unrecognized accounts fall back to the full account name.
func CoopFromAccountName(accountName string) string {
	for _, coop := range knownCoopNames {
		if strings.Contains(accountName, coop) {
			return coop
		}
	}
	return accountName
}

// ParseAccountBalances reads a coopaccountbalance CSV export.
func ParseAccountBalances(r io.Reader) ([]BalanceRow, error) {
	records, columns, err := readExport(r, balanceRequiredColumns)
	if err != nil {
		return nil, err
	}

	var rows []BalanceRow
	var rowErrors []string
	for i, record := range records {
		rowNumber := i + 2
		field := fieldReader(record, columns)

		row := BalanceRow{
			AccountName:  field("Account Name"),
			SpeciesGroup: field("Species Group"),
		}
		row.CoopCode = CoopFromAccountName(row.AccountName)

		var errs []string
		if date, ok := parseExportDate(field("Balance Date")); ok {
			row.BalanceDate = date
		} else {
			errs = append(errs, fmt.Sprintf("invalid Balance Date: %s", field("Balance Date")))
		}
		for _, column := range []struct {
			name   string
			target *decimal.Decimal
		}{
			{"Initial Quota", &row.InitialQuota},
			{"Transfers In", &row.TransfersIn},
			{"Transfers Out", &row.TransfersOut},
			{"Total Quota", &row.TotalQuota},
			{"Total Catch", &row.TotalCatch},
			{"Remaining Quota", &row.RemainingQuota},
		} {
			value, err := parseExportDecimal(field(column.name))
			if err != nil {
				errs = append(errs, fmt.Sprintf("invalid %s: %s", column.name, field(column.name)))
				continue
			}
			*column.target = value
		}
		if raw := field("Percent Taken"); raw != "" {
			if value, err := parseExportDecimal(raw); err == nil {
				row.PercentTaken = &value
			}
		}

		if len(errs) > 0 {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %s", rowNumber, strings.Join(errs, "; ")))
			continue
		}
		rows = append(rows, row)
	}

	if len(rowErrors) > 0 {
		return nil, exportValidationError(rowErrors)
	}
	return rows, nil
}

// ParseAccountDetail reads a coopaccountdetail CSV export.
func ParseAccountDetail(r io.Reader) ([]DetailRow, error) {
	records, columns, err := readExport(r, detailRequiredColumns)
	if err != nil {
		return nil, err
	}

	var rows []DetailRow
	var rowErrors []string
	for i, record := range records {
		rowNumber := i + 2
		field := fieldReader(record, columns)

		row := DetailRow{
			VesselName:  field("Vessel Name"),
			SpeciesName: field("Species Name"),
		}

		var errs []string
		if date, ok := parseExportDate(field("Catch Activity Date")); ok {
			row.CatchActivityDate = date
		} else {
			errs = append(errs, fmt.Sprintf("invalid Catch Activity Date: %s", field("Catch Activity Date")))
		}
		if code, err := strconv.Atoi(field("Species Code")); err == nil {
			row.SpeciesCode = code
		} else {
			errs = append(errs, fmt.Sprintf("invalid Species Code: %s", field("Species Code")))
		}
		if weight, err := parseExportDecimal(field("Weight Posted")); err == nil {
			row.WeightPosted = weight
		} else {
			errs = append(errs, fmt.Sprintf("invalid Weight Posted: %s", field("Weight Posted")))
		}

		row.ADFG = optional(field("ADFG"))
		row.ProcessorPermit = optional(field("Processor Permit"))
		row.ReportNumber = optional(field("Report Number"))
		row.GearCode = optional(field("Gear Code"))
		row.ReportingArea = optional(field("Reporting Area"))
		if raw := field("Landing Date"); raw != "" {
			if date, ok := parseExportDate(raw); ok {
				row.LandingDate = &date
			}
		}

		if len(errs) > 0 {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %s", rowNumber, strings.Join(errs, "; ")))
			continue
		}
		rows = append(rows, row)
	}

	if len(rowErrors) > 0 {
		return nil, exportValidationError(rowErrors)
	}
	return rows, nil
}

func readExport(r io.Reader, required []string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "File is empty or contains no data rows.")
	}
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Could not parse file.")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Missing required columns: %s.", strings.Join(missing, ", ")))
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Could not parse file.")
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "File is empty or contains no data rows.")
	}
	return records, columns, nil
}

func fieldReader(record []string, columns map[string]int) func(string) string {
	return func(name string) string {
		index, ok := columns[name]
		if !ok || index >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[index])
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

var exportDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

func parseExportDate(raw string) (time.Time, bool) {
	for _, layout := range exportDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// parseExportDecimal tolerates thousands separators, which eLandings
// exports include.
func parseExportDecimal(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	if cleaned == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(cleaned)
}

func exportValidationError(rowErrors []string) error {
	shown := rowErrors
	if len(shown) > 10 {
		shown = append(append([]string{}, rowErrors[:10]...),
			fmt.Sprintf("... and %d more errors", len(rowErrors)-10))
	}
	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("Found %d validation error(s):\n%s", len(rowErrors), strings.Join(shown, "\n")))
}
