// Package coords converts between the degrees + decimal-minutes coordinates
// captains enter on deck and the signed decimal degrees stored in the
// database. Storage is always decimal degrees rounded to 6 places; display is
// always degrees and minutes with one decimal of minute precision.
package coords

import (
	"fmt"
	"math"
	"strings"

	"github.com/fishermenfirst/fleetquota-backend/pkg/errors"
)

// Gulf of Alaska operating area. Latitude is northern hemisphere only and
// longitude is western hemisphere only; anything outside these bounds is a
// data-entry mistake, not a real haul position.
const (
	MinLatitude  = 50.0
	MaxLatitude  = 72.0
	MinLongitude = 130.0
	MaxLongitude = 180.0
)

// DMS is a coordinate component as entered by a captain: whole degrees,
// decimal minutes, and a hemisphere letter (N/S/E/W).
type DMS struct {
	Degrees    int     `json:"degrees"`
	Minutes    float64 `json:"minutes"`
	Hemisphere string  `json:"hemisphere"`
}

// ToDecimal converts degrees + decimal minutes to signed decimal degrees,
// rounded to 6 places. S and W hemispheres negate the result.
func ToDecimal(degrees int, minutes float64, hemisphere string) (float64, error) {
	if degrees < 0 {
		return 0, errors.New(errors.CodeValidation, "degrees cannot be negative")
	}
	if minutes < 0 || minutes >= 60 {
		return 0, errors.New(errors.CodeValidation, "minutes must be in [0, 60)")
	}

	h := strings.ToUpper(strings.TrimSpace(hemisphere))
	switch h {
	case "N", "S", "E", "W":
	default:
		return 0, errors.New(errors.CodeValidation, fmt.Sprintf("invalid hemisphere %q", hemisphere))
	}

	decimal := float64(degrees) + minutes/60.0
	if h == "S" || h == "W" {
		decimal = -decimal
	}
	return round(decimal, 6), nil
}

// FromDecimal converts signed decimal degrees back to degrees + decimal
// minutes. Minutes are rounded to 0.1. For latitude the hemisphere is N/S;
// for longitude E/W with E as the non-negative default, though positions in
// this fishery are always W.
func FromDecimal(decimal float64, isLatitude bool) DMS {
	abs := math.Abs(decimal)
	degrees := int(math.Floor(abs))
	minutes := round((abs-float64(degrees))*60.0, 1)

	// 59.95+ rounds up to 60.0; carry into the degree.
	if minutes >= 60.0 {
		minutes = 0
		degrees++
	}

	hemisphere := "E"
	if isLatitude {
		hemisphere = "N"
		if decimal < 0 {
			hemisphere = "S"
		}
	} else if decimal < 0 {
		hemisphere = "W"
	}

	return DMS{Degrees: degrees, Minutes: minutes, Hemisphere: hemisphere}
}

// Format renders a DMS component the way it appears on alert cards, e.g.
// 57°30.5'N.
func (d DMS) Format() string {
	return fmt.Sprintf("%d°%.1f'%s", d.Degrees, d.Minutes, d.Hemisphere)
}

// FormatPosition renders a stored lat/lon pair for display.
func FormatPosition(latitude, longitude float64) string {
	lat := FromDecimal(latitude, true)
	lon := FromDecimal(longitude, false)
	return fmt.Sprintf("%s, %s", lat.Format(), lon.Format())
}

// ValidatePosition rejects coordinates outside the Alaska operating area.
// Latitude must be 50-72°N and longitude 130-180°W (stored negative).
func ValidatePosition(latitude, longitude float64) error {
	if latitude < MinLatitude || latitude > MaxLatitude {
		return errors.New(errors.CodeValidation,
			fmt.Sprintf("latitude %.6f outside Alaska range %.0f-%.0f°N", latitude, MinLatitude, MaxLatitude))
	}
	if longitude > -MinLongitude || longitude < -MaxLongitude {
		return errors.New(errors.CodeValidation,
			fmt.Sprintf("longitude %.6f outside Alaska range %.0f-%.0f°W", longitude, MinLongitude, MaxLongitude))
	}
	return nil
}

func round(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
