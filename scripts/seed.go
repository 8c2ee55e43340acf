package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
	"github.com/zatekoja/adminconsole/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id         TEXT PRIMARY KEY,
	actor      TEXT NOT NULL,
	action     TEXT NOT NULL,
	entity     TEXT NOT NULL,
	status     TEXT NOT NULL,
	value      NUMERIC(12, 2),
	details    TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at DESC, id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_status ON audit_logs (status);
`

var (
	actors   = []string{"ana.souza", "bruno.lima", "carla.mendes", "diego.rocha", "elisa.prado"}
	actions  = []string{"CREATE", "UPDATE", "DELETE", "APPROVE", "EXPORT"}
	subjects = []string{"contrato", "fatura", "cliente", "usuario", "relatorio"}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("seed", cfg.Log.Env, cfg.Log.Level)
	logger := observability.GetLogger()

	ctx := context.Background()
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	db := pgClient.DB()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Fatal().Err(err).Msg("failed to create audit_logs")
	}

	if os.Getenv("RESET_DB") == "true" {
		logger.Info().Msg("RESET_DB=true detected, truncating audit_logs before seeding")
		if _, err := db.ExecContext(ctx, `TRUNCATE TABLE audit_logs`); err != nil {
			logger.Fatal().Err(err).Msg("failed to reset audit_logs")
		}
	}

	count := 250
	if raw := os.Getenv("SEED_ROWS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			count = n
		}
	}

	start := time.Now().Add(-time.Duration(count) * time.Hour)
	rows := make([]goqu.Record, 0, count)
	for i := 0; i < count; i++ {
		entity := subjects[i%len(subjects)]
		rows = append(rows, goqu.Record{
			"id":         uuid.NewString(),
			"actor":      actors[i%len(actors)],
			"action":     actions[(i/2)%len(actions)],
			"entity":     entity,
			"status":     entities.AuditStatuses[(i/3)%len(entities.AuditStatuses)],
			"value":      float64((i*37)%5000) + 0.5,
			"details":    fmt.Sprintf("%s #%d alterado", entity, i+1),
			"created_at": start.Add(time.Duration(i) * time.Hour),
		})
	}

	// batches keep each statement under the parameter limit
	insert := goqu.Dialect("postgres")
	for from := 0; from < len(rows); from += 500 {
		to := min(from+500, len(rows))
		query, args, err := insert.Insert("audit_logs").Rows(toInterfaces(rows[from:to])...).Prepared(true).ToSQL()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build insert")
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			logger.Fatal().Err(err).Int("batch_start", from).Msg("failed to insert audit entries")
		}
	}

	logger.Info().Int("rows", count).Msg("seeding completed")
}

func toInterfaces(rows []goqu.Record) []interface{} {
	out := make([]interface{}, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
