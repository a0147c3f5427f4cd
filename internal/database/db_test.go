package database

import (
	"context"
	"testing"
)

func TestMigrate_SQLiteIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("Migrate run %d: %v", i+1, err)
		}
	}

	tables := []string{"users", "plants", "incidents", "maintenance", "maintenance_checklist", "reports"}
	for _, name := range tables {
		var n int
		err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", name)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\n CREATE INDEX i ON a (x);  \n")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %q", len(got), got)
	}
	if got[1] != "CREATE INDEX i ON a (x)" {
		t.Errorf("got[1] = %q", got[1])
	}
}
