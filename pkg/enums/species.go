package enums

import "fmt"

// SpeciesCode is the ADF&G numeric species code used across all quota and
// bycatch facts.
type SpeciesCode int

// Target species eligible for quota allocation and transfer.
const (
	SpeciesPOP   SpeciesCode = 141 // Pacific Ocean Perch
	SpeciesNR    SpeciesCode = 136 // Northern Rockfish
	SpeciesDusky SpeciesCode = 172 // Dusky Rockfish
)

// Prohibited Species Catch codes tracked for bycatch alerts only. These are
// never valid in allocation or transfer flows.
const (
	SpeciesHalibut    SpeciesCode = 200
	SpeciesPacificCod SpeciesCode = 110
	SpeciesThornyhead SpeciesCode = 143
	SpeciesSablefish  SpeciesCode = 710
)

var transferableSpecies = []SpeciesCode{
	SpeciesPOP,
	SpeciesNR,
	SpeciesDusky,
}

var pscSpecies = []SpeciesCode{
	SpeciesHalibut,
	SpeciesPacificCod,
	SpeciesThornyhead,
	SpeciesSablefish,
}

var speciesShortNames = map[SpeciesCode]string{
	SpeciesPOP:        "POP",
	SpeciesNR:         "NR",
	SpeciesDusky:      "Dusky",
	SpeciesHalibut:    "Halibut",
	SpeciesPacificCod: "Pacific Cod",
	SpeciesThornyhead: "Thornyhead",
	SpeciesSablefish:  "Sablefish",
}

// IsTransferable reports whether the code belongs to the target-species set
// allowed in quota allocations and transfers.
func (s SpeciesCode) IsTransferable() bool {
	for _, candidate := range transferableSpecies {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsPSC reports whether the code belongs to the prohibited-species set used
// by bycatch reporting.
func (s SpeciesCode) IsPSC() bool {
	for _, candidate := range pscSpecies {
		if candidate == s {
			return true
		}
	}
	return false
}

// ShortName returns the display abbreviation, or "Unknown" for codes outside
// the known sets. Unknown codes are data, not errors; ledger aggregation
// stays species-agnostic.
func (s SpeciesCode) ShortName() string {
	if name, ok := speciesShortNames[s]; ok {
		return name
	}
	return "Unknown"
}

// TransferableSpecies returns the target-species set in a stable order.
func TransferableSpecies() []SpeciesCode {
	out := make([]SpeciesCode, len(transferableSpecies))
	copy(out, transferableSpecies)
	return out
}

// ParseTransferableSpecies converts a raw code into a transferable
// SpeciesCode, rejecting PSC and unknown codes.
func ParseTransferableSpecies(value int) (SpeciesCode, error) {
	code := SpeciesCode(value)
	if !code.IsTransferable() {
		return 0, fmt.Errorf("species code %d is not a transferable target species", value)
	}
	return code, nil
}

// ParsePSCSpecies converts a raw code into a PSC SpeciesCode for bycatch
// flows, rejecting target and unknown codes.
func ParsePSCSpecies(value int) (SpeciesCode, error) {
	code := SpeciesCode(value)
	if !code.IsPSC() {
		return 0, fmt.Errorf("species code %d is not a prohibited-species-catch species", value)
	}
	return code, nil
}
