package reports

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatLbs(t *testing.T) {
	cases := []struct {
		value string
		want  string
	}{
		{"0", "0"},
		{"999", "999"},
		{"999.6", "1000"},
		{"1000", "1.0K"},
		{"12345", "12.3K"},
		{"999999", "1000.0K"},
		{"1000000", "1.0M"},
		{"1500000", "1.5M"},
		{"-2500", "-2.5K"},
		{"-1200000", "-1.2M"},
		{"-42", "-42"},
	}
	for _, tc := range cases {
		value, err := decimal.NewFromString(tc.value)
		if err != nil {
			t.Fatalf("bad case %q: %v", tc.value, err)
		}
		if got := FormatLbs(value); got != tc.want {
			t.Errorf("FormatLbs(%s): got %q, want %q", tc.value, got, tc.want)
		}
	}
}
