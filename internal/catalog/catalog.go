// Package catalog records per-chunk biome statistics of generation runs in
// a SQLite database.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cosiestdevil/rogue-2d/internal/world/gen"
)

// Run describes one generation run.
type Run struct {
	Episode     uuid.UUID
	Seed        int64
	Basis       string
	ChunkSize   int
	SpawnChunks int
	StartedAt   time.Time
}

// ChunkStats is the biome histogram of one chunk.
type ChunkStats struct {
	Coord    gen.ChunkCoord
	Counts   [gen.NumBiomes]int
	Duration time.Duration
}

// Catalog is a SQLite-backed run catalog.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog at path.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return nil, errors.New("empty catalog path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init catalog schema: %w", err)
		}
	}
	return &Catalog{db: db}, nil
}

var schema = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA foreign_keys=ON;",
	`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		episode TEXT NOT NULL,
		seed INTEGER NOT NULL,
		basis TEXT NOT NULL,
		chunk_size INTEGER NOT NULL,
		spawn_chunks INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS chunks (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		duration_us INTEGER NOT NULL,
		PRIMARY KEY (run_id, x, y)
	);`,
	`CREATE TABLE IF NOT EXISTS chunk_biomes (
		run_id INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		biome TEXT NOT NULL,
		pixels INTEGER NOT NULL,
		PRIMARY KEY (run_id, x, y, biome),
		FOREIGN KEY (run_id, x, y) REFERENCES chunks(run_id, x, y)
	);`,
}

// RecordRun inserts a run and returns its id.
func (c *Catalog) RecordRun(ctx context.Context, r Run) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (episode, seed, basis, chunk_size, spawn_chunks, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.Episode.String(), r.Seed, r.Basis, r.ChunkSize, r.SpawnChunks, r.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// RecordChunk stores the histogram of one chunk of run.
func (c *Catalog) RecordChunk(ctx context.Context, run int64, st ChunkStats) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chunks (run_id, x, y, duration_us) VALUES (?, ?, ?, ?)`,
		run, st.Coord.X, st.Coord.Y, st.Duration.Microseconds()); err != nil {
		return fmt.Errorf("insert chunk %s: %w", st.Coord, err)
	}
	for b, n := range st.Counts {
		if n == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunk_biomes (run_id, x, y, biome, pixels) VALUES (?, ?, ?, ?, ?)`,
			run, st.Coord.X, st.Coord.Y, gen.Biome(b).String(), n); err != nil {
			return fmt.Errorf("insert biome count %s: %w", st.Coord, err)
		}
	}
	return tx.Commit()
}

// Summary returns the pixel count per biome name over every chunk of run.
func (c *Catalog) Summary(ctx context.Context, run int64) (map[string]int, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT biome, SUM(pixels) FROM chunk_biomes WHERE run_id = ? GROUP BY biome`, run)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			biome string
			n     int
		)
		if err := rows.Scan(&biome, &n); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out[biome] = n
	}
	return out, rows.Err()
}

// Chunks returns how many chunks run recorded.
func (c *Catalog) Chunks(ctx context.Context, run int64) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE run_id = ?`, run).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (c *Catalog) Close() error { return c.db.Close() }

// CountBiomes classifies every pixel of chunk coord.
func CountBiomes(s *gen.Synthesizer, coord gen.ChunkCoord) [gen.NumBiomes]int {
	var counts [gen.NumBiomes]int
	for y := 0; y < s.Size(); y++ {
		for x := 0; x < s.Size(); x++ {
			counts[s.Sample(coord, x, y).Biome()]++
		}
	}
	return counts
}
