package harvests

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

// Columns an eFish export must carry. Header matching is case-insensitive
// and whitespace-tolerant; column order does not matter.
var efishRequiredColumns = []string{
	"landing_date",
	"vessel_name",
	"vessel_id",
	"species_code",
	"species_name",
	"pounds",
	"price_per_lb",
	"processor_name",
}

// report_number is optional; older exports do not carry it.
const efishReportNumberColumn = "report_number"

var efishDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// EFishRow is one parsed landing from an eFish export, validated in
// isolation. Cross-row and database checks happen at import time.
type EFishRow struct {
	RowNumber     int
	LandingDate   time.Time
	VesselName    string
	VesselID      string
	SpeciesCode   int
	SpeciesName   string
	Pounds        decimal.Decimal
	PricePerLb    *decimal.Decimal
	ProcessorName string
	ReportNumber  *string
}

// ParseEFish reads an eFish CSV export and returns its validated rows.
// Rows are validated all-or-nothing: any bad row fails the whole file, with
// up to ten row errors reported so the uploader can fix the file once.
func ParseEFish(r io.Reader) ([]EFishRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "File is empty or contains no data rows.")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Could not parse file.")
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []EFishRow
	var rowErrors []string
	rowNumber := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNumber++
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: could not parse line", rowNumber))
			continue
		}

		row, errs := parseEFishRow(record, columns, rowNumber)
		if len(errs) > 0 {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %s", rowNumber, strings.Join(errs, "; ")))
			continue
		}
		rows = append(rows, row)
	}

	if len(rowErrors) > 0 {
		return nil, validationSummary(rowErrors)
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "File is empty or contains no data rows.")
	}
	return rows, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, required := range efishRequiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Missing required columns: %s.", strings.Join(missing, ", ")))
	}
	return columns, nil
}

func parseEFishRow(record []string, columns map[string]int, rowNumber int) (EFishRow, []string) {
	var errs []string
	row := EFishRow{RowNumber: rowNumber}

	field := func(name string) string {
		index, ok := columns[name]
		if !ok || index >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[index])
	}

	if raw := field("landing_date"); raw == "" {
		errs = append(errs, "landing_date is required")
	} else if parsed, ok := parseDate(raw); ok {
		row.LandingDate = parsed
	} else {
		errs = append(errs, fmt.Sprintf("invalid landing_date format: %s", raw))
	}

	row.VesselName = field("vessel_name")
	row.VesselID = field("vessel_id")
	if row.VesselID == "" {
		errs = append(errs, "vessel_id is required")
	}

	if raw := field("species_code"); raw == "" {
		errs = append(errs, "species_code is required")
	} else if code, err := strconv.Atoi(raw); err != nil {
		errs = append(errs, fmt.Sprintf("invalid species_code: %s", raw))
	} else {
		row.SpeciesCode = code
	}
	row.SpeciesName = field("species_name")

	if raw := field("pounds"); raw == "" {
		errs = append(errs, "pounds is required")
	} else if pounds, err := decimal.NewFromString(raw); err != nil {
		errs = append(errs, fmt.Sprintf("invalid pounds value: %s", raw))
	} else if pounds.IsNegative() {
		errs = append(errs, "pounds cannot be negative")
	} else {
		row.Pounds = pounds
	}

	if raw := field("price_per_lb"); raw != "" {
		price, err := decimal.NewFromString(raw)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("invalid price_per_lb value: %s", raw))
		case price.IsNegative():
			errs = append(errs, "price_per_lb cannot be negative")
		default:
			row.PricePerLb = &price
		}
	}

	row.ProcessorName = field("processor_name")
	if raw := field(efishReportNumberColumn); raw != "" {
		row.ReportNumber = &raw
	}

	return row, errs
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range efishDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func validationSummary(rowErrors []string) error {
	summary := fmt.Sprintf("Found %d validation error(s):\n%s",
		len(rowErrors), strings.Join(truncateErrors(rowErrors, 10), "\n"))
	return pkgerrors.New(pkgerrors.CodeValidation, summary)
}

func truncateErrors(errs []string, limit int) []string {
	if len(errs) <= limit {
		return errs
	}
	shown := make([]string, 0, limit+1)
	shown = append(shown, errs[:limit]...)
	shown = append(shown, fmt.Sprintf("... and %d more errors", len(errs)-limit))
	return shown
}
