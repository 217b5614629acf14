package migrate

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/logger"
)

// EnsureSchema applies the embedded migration set at startup. The process
// cannot run without its schema, so callers treat a failure here as fatal.
func EnsureSchema(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "applying schema migrations")
	}

	if err := Up(ctx, sqlDB); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "schema migrations up to date")
	}
	return nil
}

// ResetAll drops every application table plus the schema version table, then
// re-applies the embedded migrations. Destructive; reachable only from the
// migrate CLI and tests, never from a user action.
func ResetAll(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	if logg != nil {
		logg.Warn(ctx, "resetting all application tables")
	}

	type tableRow struct {
		Name string
	}
	var tables []tableRow
	err := client.Query(ctx, &tables,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}

	names := make([]string, 0, len(tables))
	for _, table := range tables {
		names = append(names, table.Name)
	}

	var dropErr error
	for _, table := range orderForDrop(names) {
		if err := client.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", table)); err != nil {
			dropErr = multierr.Append(dropErr, fmt.Errorf("dropping %s: %w", table, err))
		}
	}
	if dropErr != nil {
		return dropErr
	}

	return EnsureSchema(ctx, client, logg)
}

// dropOrder lists application tables children-first so dropping never trips a
// foreign key on a connection running with foreign_keys=on. The pragma cannot
// be toggled reliably here: it binds per pooled connection and is a no-op
// inside a transaction.
var dropOrder = []string{
	"inventory_transactions",
	"inventory_alerts",
	"inventory_items",
	"sessions",
	"login_attempts",
	"tasks",
	"sequence_counters",
	"workers",
	"buildings",
	"goose_db_version",
}

// orderForDrop sorts the discovered tables into drop order; tables not in the
// known set (e.g. from newer migrations) drop first, before any parent they
// might reference.
func orderForDrop(names []string) []string {
	rank := make(map[string]int, len(dropOrder))
	for i, t := range dropOrder {
		rank[t] = i + 1
	}

	ordered := append([]string(nil), names...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank[ordered[i]] < rank[ordered[j]]
	})
	return ordered
}
