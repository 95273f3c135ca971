package coords

import (
	"math"
	"testing"
)

func TestToDecimal(t *testing.T) {
	tests := []struct {
		name       string
		degrees    int
		minutes    float64
		hemisphere string
		want       float64
	}{
		{"north latitude", 57, 30.5, "N", 57.508333},
		{"west longitude", 152, 24.0, "W", -152.4},
		{"south negates", 10, 15.0, "S", -10.25},
		{"zero minutes", 60, 0, "N", 60.0},
		{"lowercase hemisphere", 57, 30.5, "n", 57.508333},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToDecimal(tc.degrees, tc.minutes, tc.hemisphere)
			if err != nil {
				t.Fatalf("ToDecimal: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestToDecimalRejectsBadInput(t *testing.T) {
	if _, err := ToDecimal(-1, 10, "N"); err == nil {
		t.Fatal("expected error for negative degrees")
	}
	if _, err := ToDecimal(57, 60, "N"); err == nil {
		t.Fatal("expected error for minutes >= 60")
	}
	if _, err := ToDecimal(57, 30, "Q"); err == nil {
		t.Fatal("expected error for unknown hemisphere")
	}
}

func TestFromDecimal(t *testing.T) {
	got := FromDecimal(57.508333, true)
	if got.Degrees != 57 || got.Minutes != 30.5 || got.Hemisphere != "N" {
		t.Fatalf("unexpected result: %+v", got)
	}

	got = FromDecimal(-152.4, false)
	if got.Degrees != 152 || got.Minutes != 24.0 || got.Hemisphere != "W" {
		t.Fatalf("unexpected result: %+v", got)
	}

	got = FromDecimal(0, false)
	if got.Hemisphere != "E" {
		t.Fatalf("expected E default for non-negative longitude, got %q", got.Hemisphere)
	}
}

func TestFromDecimalCarriesRoundedMinutes(t *testing.T) {
	// 57.99959° is 57° 59.9754', which rounds up to 60.0' and must carry.
	got := FromDecimal(57.99959, true)
	if got.Degrees != 58 || got.Minutes != 0 {
		t.Fatalf("expected 58°0.0', got %+v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	decimal, err := ToDecimal(57, 30.5, "N")
	if err != nil {
		t.Fatalf("ToDecimal: %v", err)
	}
	back := FromDecimal(decimal, true)
	if back.Degrees != 57 || back.Hemisphere != "N" {
		t.Fatalf("unexpected round trip: %+v", back)
	}
	if math.Abs(back.Minutes-30.5) > 0.1 {
		t.Fatalf("minutes out of tolerance: %v", back.Minutes)
	}
}

func TestFormatPosition(t *testing.T) {
	got := FormatPosition(57.508333, -152.4)
	want := "57°30.5'N, 152°24.0'W"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestValidatePosition(t *testing.T) {
	if err := ValidatePosition(57.5, -152.4); err != nil {
		t.Fatalf("expected valid Kodiak position, got %v", err)
	}
	if err := ValidatePosition(45.0, -152.4); err == nil {
		t.Fatal("expected error for latitude south of range")
	}
	if err := ValidatePosition(57.5, -120.0); err == nil {
		t.Fatal("expected error for longitude east of range")
	}
	if err := ValidatePosition(57.5, 152.4); err == nil {
		t.Fatal("expected error for eastern-hemisphere longitude")
	}
}
