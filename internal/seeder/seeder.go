package seeder

import (
	"context"
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/database"
	"github.com/makerclub/printq/internal/entity"
)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Clubs seeds the club roster if it is missing.
func (s *Seeder) Clubs(ctx context.Context) error {
	samples := []entity.Club{
		{Code: "RC", Name: "Robotics Club"},
		{Code: "AE", Name: "Aerospace Engineering Society"},
		{Code: "MC", Name: "Maker Collective"},
	}

	for _, sample := range samples {
		club := sample
		_, err := s.db.NewInsert().Model(&club).
			On("CONFLICT (code) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded clubs", zap.Int("count", len(samples)))
	}
	return nil
}

// Config seeds the default system settings if they are missing. Values
// already changed by an operator are left alone.
func (s *Seeder) Config(ctx context.Context) error {
	now := time.Now().UTC()
	defaults := []entity.SystemConfig{
		{Key: "retention_days", Value: mustJSON(30), Description: "Days before submitted-order attachments expire", UpdatedAt: now},
		{Key: "max_upload_files", Value: mustJSON(10), Description: "Lifetime per-user upload allowance", UpdatedAt: now},
		{Key: "max_file_size_bytes", Value: mustJSON(50 << 20), Description: "Largest accepted upload in bytes", UpdatedAt: now},
		{Key: "allowed_file_extensions", Value: mustJSON([]string{"stl", "obj", "3mf", "gcode"}), Description: "Accepted upload file extensions", UpdatedAt: now},
	}

	for _, sample := range defaults {
		cfg := sample
		_, err := s.db.NewInsert().Model(&cfg).
			On("CONFLICT (key) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded system config", zap.Int("count", len(defaults)))
	}
	return nil
}

// Run applies every seeder.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.Clubs(ctx); err != nil {
		return err
	}
	return s.Config(ctx)
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
