package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:client_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := NewWithConn(newTestDB(t))
	db := client.DB()

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestQueryScansTypedRows(t *testing.T) {
	client := NewWithConn(newTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"mop", "bleach"} {
		if err := client.Exec(ctx, "INSERT INTO test_models (name) VALUES (?)", name); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	var rows []testModel
	if err := client.Query(ctx, &rows, "SELECT id, name FROM test_models ORDER BY id"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "mop" || rows[1].Name != "bleach" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestQueryMalformedSQLReturnsQueryError(t *testing.T) {
	client := NewWithConn(newTestDB(t))

	var rows []testModel
	err := client.Query(context.Background(), &rows, "SELECT nope FROM not_a_table")
	if err == nil {
		t.Fatal("expected query error")
	}
	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("expected *QueryError, got %T", err)
	}
}

func TestExecConstraintReturnsWriteError(t *testing.T) {
	client := NewWithConn(newTestDB(t))
	ctx := context.Background()

	if err := client.Exec(ctx, "CREATE TABLE uniq (val TEXT UNIQUE)"); err != nil {
		t.Fatalf("ddl failed: %v", err)
	}
	if err := client.Exec(ctx, "INSERT INTO uniq (val) VALUES ('a')"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	err := client.Exec(ctx, "INSERT INTO uniq (val) VALUES ('a')")
	if err == nil {
		t.Fatal("expected constraint error")
	}
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected *WriteError, got %T", err)
	}
	if !IsUniqueViolation(err, "uniq.val") {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestGenerateSequentialID(t *testing.T) {
	client := NewWithConn(newTestDB(t))
	ctx := context.Background()

	ddl := `CREATE TABLE sequence_counters (
  id TEXT PRIMARY KEY,
  scope TEXT NOT NULL,
  period TEXT NOT NULL,
  created_at DATETIME
);`
	if err := client.Exec(ctx, ddl); err != nil {
		t.Fatalf("ddl failed: %v", err)
	}

	first, err := client.GenerateSequentialID(ctx, "REQ")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	second, err := client.GenerateSequentialID(ctx, "REQ")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if !strings.HasPrefix(first, "REQ-") || !strings.HasSuffix(first, "-0001") {
		t.Fatalf("unexpected first id %q", first)
	}
	if !strings.HasSuffix(second, "-0002") {
		t.Fatalf("unexpected second id %q", second)
	}

	other, err := client.GenerateSequentialID(ctx, "WO")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.HasSuffix(other, "-0001") {
		t.Fatalf("scopes must number independently, got %q", other)
	}
}

func TestWriteLaneSerializesTransactions(t *testing.T) {
	client := NewWithConn(newTestDB(t))
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			err := client.WithTx(ctx, func(tx *gorm.DB) error {
				var count int64
				if err := tx.Model(&testModel{}).Count(&count).Error; err != nil {
					return err
				}
				// read-then-write: would race without the lane
				return tx.Create(&testModel{Name: fmt.Sprintf("row-%d", count+1)}).Error
			})
			if err != nil {
				t.Errorf("writer %d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	var names []string
	if err := client.DB().Model(&testModel{}).Order("id").Pluck("name", &names).Error; err != nil {
		t.Fatalf("pluck failed: %v", err)
	}
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			t.Fatalf("duplicate row name %q: writers were not serialized", name)
		}
		seen[name] = true
	}
	if len(names) != writers {
		t.Fatalf("expected %d rows, got %d", writers, len(names))
	}
}

func TestPing(t *testing.T) {
	client := NewWithConn(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}
