package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fishermenfirst/fleetquota-backend/pkg/migrate"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestQuotaFactMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_quota_fact_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS vessel_allocations",
		"CREATE TABLE IF NOT EXISTS quota_transfers",
		"CREATE TABLE IF NOT EXISTS harvests",
		"pounds NUMERIC(14,2) NOT NULL CHECK (pounds > 0)",
		"CHECK (from_llp <> to_llp)",
		"idx_alloc_llp_species_year",
		"idx_harvest_llp_species_year",
		"DROP TABLE IF EXISTS quota_transfers",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestBycatchMigrationContainsStateMachine(t *testing.T) {
	content := readMigration(t, "*_create_bycatch_tables.sql")

	checks := []string{
		"CHECK (status IN ('pending', 'shared', 'dismissed'))",
		"CHECK (unit IN ('lbs', 'count'))",
		"REFERENCES bycatch_alerts(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReferenceMigrationSeedsSpecies(t *testing.T) {
	content := readMigration(t, "*_create_reference_tables.sql")

	for _, sub := range []string{"(141,", "(136,", "(172,", "(200,", "(110,", "(143,", "(710,"} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing species seed row %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
