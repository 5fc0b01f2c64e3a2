package postgres

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	_ "github.com/lib/pq"

	"itemservice/pkg/item/itemtest"
)

func TestRepository(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	repo := New(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	itemtest.Run(t, repo)
}

func TestSchemaUsesBigint(t *testing.T) {
	for _, col := range []string{"price BIGINT", "quantity BIGINT"} {
		if !strings.Contains(Schema, col) {
			t.Fatalf("schema missing %q:\n%s", col, Schema)
		}
	}
}
