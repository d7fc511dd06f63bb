// Package metadata keeps the cohort metadata (samples and ploidy hints)
// in SQLite.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gohan/allelecounts/models/constants"
	"gohan/allelecounts/models/constants/chromosome"
	"gohan/allelecounts/models/constants/ploidy"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id      INTEGER PRIMARY KEY,
	name    TEXT NOT NULL UNIQUE,
	indexed BOOLEAN NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS chromosome_ploidy (
	chromosome TEXT PRIMARY KEY,
	ploidy     INTEGER NOT NULL
);`

var ErrUnknownSample = errors.New("unknown sample")

// Sample conforms to the rows of the "samples" table.
type Sample struct {
	Id      uint32 `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Indexed bool   `db:"indexed" json:"indexed"`
}

type Repository struct {
	DB *sqlx.DB
}

// Open connects to (and initializes) the metadata database at path.
func Open(path string) (*Repository, error) {
	// URI filenames have to begin with 'file:'
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect(whichSQLiteDriver, path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	// a single connection keeps in-memory databases alive and shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	return &Repository{DB: db}, nil
}

func (r *Repository) Close() error {
	return r.DB.Close()
}

func (r *Repository) AddSamples(ctx context.Context, samples ...Sample) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return pfx.Err(err)
	}
	for _, s := range samples {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO samples (id, name, indexed) VALUES (:id, :name, :indexed)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, indexed = excluded.indexed`, s); err != nil {
			tx.Rollback()
			return pfx.Err(fmt.Errorf("sample %d (%s): %w", s.Id, s.Name, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}
	return nil
}

func (r *Repository) Samples(ctx context.Context) ([]Sample, error) {
	samples := []Sample{}
	if err := r.DB.SelectContext(ctx, &samples, "SELECT id, name, indexed FROM samples ORDER BY id"); err != nil {
		return nil, pfx.Err(err)
	}
	return samples, nil
}

func (r *Repository) SampleName(ctx context.Context, sampleId uint32) (string, error) {
	var name string
	err := r.DB.GetContext(ctx, &name, "SELECT name FROM samples WHERE id = ?", sampleId)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %d", ErrUnknownSample, sampleId)
	}
	if err != nil {
		return "", pfx.Err(err)
	}
	return name, nil
}

// SampleIds resolves sample names; unknown names are an error.
func (r *Repository) SampleIds(ctx context.Context, names ...string) (map[string]uint32, error) {
	ids := map[string]uint32{}
	if len(names) == 0 {
		return ids, nil
	}

	query, args, err := sqlx.In("SELECT id, name, indexed FROM samples WHERE name IN (?)", names)
	if err != nil {
		return nil, pfx.Err(err)
	}
	samples := []Sample{}
	if err := r.DB.SelectContext(ctx, &samples, r.DB.Rebind(query), args...); err != nil {
		return nil, pfx.Err(err)
	}
	for _, s := range samples {
		ids[s.Name] = s.Id
	}
	for _, n := range names {
		if _, ok := ids[n]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSample, n)
		}
	}
	return ids, nil
}

func (r *Repository) IndexedSamples(ctx context.Context) ([]uint32, error) {
	ids := []uint32{}
	if err := r.DB.SelectContext(ctx, &ids, "SELECT id FROM samples WHERE indexed ORDER BY id"); err != nil {
		return nil, pfx.Err(err)
	}
	return ids, nil
}

func (r *Repository) SetPloidy(ctx context.Context, chr string, p constants.Ploidy) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO chromosome_ploidy (chromosome, ploidy) VALUES (?, ?)
		 ON CONFLICT(chromosome) DO UPDATE SET ploidy = excluded.ploidy`,
		chromosome.Normalize(chr), int(p))
	if err != nil {
		return pfx.Err(err)
	}
	return nil
}

// Ploidy falls back on the usual human ploidy when none was recorded.
func (r *Repository) Ploidy(ctx context.Context, chr string) (constants.Ploidy, error) {
	var value int
	err := r.DB.GetContext(ctx, &value, "SELECT ploidy FROM chromosome_ploidy WHERE chromosome = ?", chromosome.Normalize(chr))
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !ploidy.IsKnown(value)) {
		return ploidy.DefaultForChromosome(chr), nil
	}
	if err != nil {
		return ploidy.Unknown, pfx.Err(err)
	}
	return constants.Ploidy(value), nil
}
