package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCoreMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_core_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no core tables migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"CHECK (quantity >= 0)",
		"CHECK (restock_threshold >= 0)",
		"FOREIGN KEY (list_id) REFERENCES shopping_lists(id) ON DELETE CASCADE",
		"FOREIGN KEY (store_id) REFERENCES stores(id)",
		"sync_state TEXT NOT NULL DEFAULT 'dirty'",
		"DROP TABLE IF EXISTS price_records",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
