package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var _ contractx.RunStore = (*PostgresStore)(nil)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// runRecord is one row of run_reports. The full report is kept as jsonb so
// the schema does not follow every report field.
type runRecord struct {
	bun.BaseModel `bun:"table:run_reports,alias:rr"`

	RunID       string    `bun:"run_id,pk"`
	Status      string    `bun:"status,notnull"`
	Payload     string    `bun:"payload,type:jsonb,notnull"`
	CompletedAt time.Time `bun:"completed_at,nullzero"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// PostgresStore keeps run reports in Postgres through bun.
type PostgresStore struct {
	db      *bun.DB
	timeout time.Duration
	now     func() time.Time
}

func OpenPostgres(cfg PostgresConfig) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func NewPostgresStore(db *bun.DB, timeout time.Duration) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout, now: time.Now}, nil
}

// Migrate creates the run_reports table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.NewCreateTable().Model((*runRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create run_reports: %v", contractx.ErrStorage, err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, report contractx.AgentReport) error {
	rec, err := toRecord(report, s.now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.db.NewInsert().
		Model(&rec).
		On("CONFLICT (run_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("payload = EXCLUDED.payload").
		Set("completed_at = EXCLUDED.completed_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: upsert run %s: %v", contractx.ErrStorage, rec.RunID, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, runID string) (contractx.AgentReport, error) {
	if strings.TrimSpace(runID) == "" {
		return contractx.AgentReport{}, ErrInvalidRun
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rec runRecord
	err := s.db.NewSelect().Model(&rec).Where("run_id = ?", runID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.AgentReport{}, ErrRunNotFound
	}
	if err != nil {
		return contractx.AgentReport{}, fmt.Errorf("%w: select run %s: %v", contractx.ErrStorage, runID, err)
	}
	return fromRecord(rec)
}

func toRecord(report contractx.AgentReport, now time.Time) (runRecord, error) {
	if strings.TrimSpace(report.RunID) == "" {
		return runRecord{}, ErrInvalidRun
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return runRecord{}, fmt.Errorf("marshal run report: %w", err)
	}
	return runRecord{
		RunID:       report.RunID,
		Status:      string(report.Status),
		Payload:     string(payload),
		CompletedAt: report.CompletedAt.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

func fromRecord(rec runRecord) (contractx.AgentReport, error) {
	var report contractx.AgentReport
	if err := json.Unmarshal([]byte(rec.Payload), &report); err != nil {
		return contractx.AgentReport{}, fmt.Errorf("%w: decode run %s: %v", contractx.ErrStorage, rec.RunID, err)
	}
	return report, nil
}
