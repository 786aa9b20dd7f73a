package state

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

func TestRunRecordRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	rec, err := toRecord(sampleReport("run-pg"), now)
	if err != nil {
		t.Fatalf("toRecord() error = %v", err)
	}
	if rec.Status != string(contractx.RunPartialSuccess) || !rec.UpdatedAt.Equal(now) || rec.UpdatedAt.Location() != time.UTC {
		t.Fatalf("record = %+v", rec)
	}

	report, err := fromRecord(rec)
	if err != nil {
		t.Fatalf("fromRecord() error = %v", err)
	}
	if report.RunID != "run-pg" || report.RecommendedProduct == nil || report.RecommendedProduct.Name != "SecureIncome Annuity" {
		t.Fatalf("report = %+v", report)
	}

	if _, err := toRecord(contractx.AgentReport{}, now); !errors.Is(err, ErrInvalidRun) {
		t.Fatalf("toRecord() error = %v, want ErrInvalidRun", err)
	}
	if _, err := fromRecord(runRecord{RunID: "bad", Payload: "{"}); !errors.Is(err, contractx.ErrStorage) {
		t.Fatalf("fromRecord() error = %v, want ErrStorage", err)
	}
}

func TestPostgresStoreSaveLoad(t *testing.T) {
	dsn := os.Getenv("RUNSTORE_PG_TEST_DSN")
	if dsn == "" {
		t.Skip("RUNSTORE_PG_TEST_DSN not set")
	}

	db, err := OpenPostgres(PostgresConfig{DSN: dsn})
	if err != nil {
		t.Fatalf("OpenPostgres() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewPostgresStore(db, 5*time.Second)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	runID := "run-it-" + time.Now().UTC().Format("150405.000000")
	report := sampleReport(runID)
	if err := store.Save(ctx, report); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	report.Status = contractx.RunSuccess
	if err := store.Save(ctx, report); err != nil {
		t.Fatalf("Save() upsert error = %v", err)
	}

	got, err := store.Load(ctx, runID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Status != contractx.RunSuccess {
		t.Fatalf("Load().Status = %q, want success", got.Status)
	}
	if _, err := store.Load(ctx, "run-missing-"+runID); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("Load() error = %v, want ErrRunNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Save(ctx, sampleReport("run-mem")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load(ctx, "run-mem")
	if err != nil || got.RunID != "run-mem" {
		t.Fatalf("Load() = %+v, %v", got, err)
	}
	if _, err := store.Load(ctx, "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("Load() error = %v, want ErrRunNotFound", err)
	}
	if err := store.Save(ctx, contractx.AgentReport{}); !errors.Is(err, ErrInvalidRun) {
		t.Fatalf("Save() error = %v, want ErrInvalidRun", err)
	}
}
