package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	pkgconfig "github.com/arteza/studio/pkg/config"
	"github.com/arteza/studio/pkg/database"
)

// EnvPrefix namespaces the seeder's settings.
const EnvPrefix = "SEED_"

// Options sizes the generated data.
type Options struct {
	Artworks  int    `env:"ARTWORKS" envDefault:"500"`
	Classes   int    `env:"CLASSES" envDefault:"40"`
	DemoEmail string `env:"DEMO_EMAIL" envDefault:"demo@arteza.studio"`
	// RandSeed fixes the generated content; equal seeds give equal rows.
	RandSeed uint64 `env:"RAND" envDefault:"42"`
	Now      time.Time
}

// OptionsFromEnv reads SEED_ARTWORKS, SEED_CLASSES, SEED_DEMO_EMAIL and
// SEED_RAND.
func OptionsFromEnv() (Options, error) {
	var opts Options
	if err := pkgconfig.LoadWithPrefix(&opts, EnvPrefix); err != nil {
		return Options{}, err
	}
	if opts.Artworks < 0 || opts.Classes < 0 {
		return Options{}, fmt.Errorf("seed counts must be >= 0, got %d artworks and %d classes", opts.Artworks, opts.Classes)
	}
	return opts, nil
}

// Run generates the demo data and upserts it in a single transaction.
func Run(ctx context.Context, db database.TxBeginner, opts Options, logger *slog.Logger) (err error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	rng := rand.New(rand.NewPCG(opts.RandSeed, opts.RandSeed^0x5eed))

	artworks := Artworks(rng, opts.Artworks, opts.Now)
	classes := Classes(rng, opts.Classes, opts.Now)
	enrollments := Enrollments(rng, opts.DemoEmail, opts.Now)
	if opts.DemoEmail == "" {
		enrollments = nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = InsertArtworks(ctx, tx, artworks); err != nil {
		return err
	}
	if err = InsertClasses(ctx, tx, classes); err != nil {
		return err
	}
	if err = InsertEnrollments(ctx, tx, enrollments); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	logger.Info("seed complete",
		slog.Int("artworks", len(artworks)),
		slog.Int("classes", len(classes)),
		slog.Int("enrollments", len(enrollments)),
	)
	return nil
}
