// Package sqlite provides a SQLite-backed bestiary catalog.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xtding233/encounter-backend/internal/bestiary"
	"github.com/xtding233/encounter-backend/internal/bestiary/sqlite/migrations"
	"github.com/xtding233/encounter-backend/internal/encounter"
)

// Store persists bestiary packs in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// PackSummary describes one imported pack.
type PackSummary struct {
	Name       string
	Label      string
	Type       string
	Creatures  int
	ImportedAt time.Time
}

// Open opens a SQLite catalog and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ImportPack upserts p and replaces its creatures in one transaction.
func (s *Store) ImportPack(ctx context.Context, p bestiary.Pack) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := bestiary.ValidatePack(p); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import %s: %w", p.Name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO packs (name, label, type, imported_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   label = excluded.label,
		   type = excluded.type,
		   imported_at = excluded.imported_at`,
		p.Name, p.Label, p.Type, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("upsert pack %s: %w", p.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM creatures WHERE pack_name = ?`, p.Name); err != nil {
		return fmt.Errorf("clear creatures of %s: %w", p.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO creatures (pack_name, id, name, level, type, traits, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare creature insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range p.Creatures {
		traits, err := json.Marshal(nonNil(c.Traits))
		if err != nil {
			return fmt.Errorf("encode traits of %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.Name, c.ID, c.Name, c.Level, c.Type, string(traits), i); err != nil {
			return fmt.Errorf("insert creature %s/%s: %w", p.Name, c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import %s: %w", p.Name, err)
	}
	return nil
}

// DeletePack removes a pack and its creatures. Missing packs are not an error.
func (s *Store) DeletePack(ctx context.Context, name string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM packs WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete pack %s: %w", name, err)
	}
	return nil
}

// Sync imports every pack and deletes catalog packs missing from packs.
// It returns the names of the deleted packs.
func (s *Store) Sync(ctx context.Context, packs []bestiary.Pack) ([]string, error) {
	keep := make(map[string]bool, len(packs))
	for _, p := range packs {
		if err := s.ImportPack(ctx, p); err != nil {
			return nil, err
		}
		keep[p.Name] = true
	}
	existing, err := s.Packs(ctx)
	if err != nil {
		return nil, err
	}
	var pruned []string
	for _, summary := range existing {
		if keep[summary.Name] {
			continue
		}
		if err := s.DeletePack(ctx, summary.Name); err != nil {
			return pruned, err
		}
		pruned = append(pruned, summary.Name)
	}
	return pruned, nil
}

// Packs lists imported packs ordered by name.
func (s *Store) Packs(ctx context.Context) ([]PackSummary, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT p.name, p.label, p.type, p.imported_at, COUNT(c.id)
		 FROM packs p LEFT JOIN creatures c ON c.pack_name = p.name
		 GROUP BY p.name
		 ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("list packs: %w", err)
	}
	defer rows.Close()

	var out []PackSummary
	for rows.Next() {
		var (
			ps         PackSummary
			importedAt int64
		)
		if err := rows.Scan(&ps.Name, &ps.Label, &ps.Type, &importedAt, &ps.Creatures); err != nil {
			return nil, fmt.Errorf("scan pack: %w", err)
		}
		ps.ImportedAt = time.UnixMilli(importedAt).UTC()
		out = append(out, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packs: %w", err)
	}
	return out, nil
}

// Candidates implements bestiary.Source.
func (s *Store) Candidates(ctx context.Context, f bestiary.Filter) ([]encounter.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query, args := candidatesQuery(f)
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var pool []encounter.Candidate
	for rows.Next() {
		var (
			pack, id, traits string
			c                encounter.Candidate
		)
		if err := rows.Scan(&pack, &id, &c.Name, &c.Level, &traits); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if err := json.Unmarshal([]byte(traits), &c.Traits); err != nil {
			return nil, fmt.Errorf("decode traits of %s/%s: %w", pack, id, err)
		}
		if len(c.Traits) == 0 {
			c.Traits = nil
		}
		c.ID = bestiary.CandidateID(pack, id)
		c.Pack = pack
		pool = append(pool, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return pool, nil
}

// candidatesQuery renders f as SQL with positional args.
func candidatesQuery(f bestiary.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.LabelContains != "" {
		where = append(where, "instr(p.label, ?) > 0")
		args = append(args, f.LabelContains)
	}
	if f.PackType != "" {
		where = append(where, "p.type = ?")
		args = append(args, f.PackType)
	}
	if f.CreatureType != "" {
		where = append(where, "c.type = ?")
		args = append(args, f.CreatureType)
	}
	if len(f.Packs) > 0 {
		where = append(where, "p.name IN (?"+strings.Repeat(", ?", len(f.Packs)-1)+")")
		for _, name := range f.Packs {
			args = append(args, name)
		}
	}
	if f.MinLevel != nil {
		where = append(where, "c.level >= ?")
		args = append(args, *f.MinLevel)
	}
	if f.MaxLevel != nil {
		where = append(where, "c.level <= ?")
		args = append(args, *f.MaxLevel)
	}

	query := `SELECT p.name, c.id, c.name, c.level, c.traits
		FROM creatures c JOIN packs p ON p.name = c.pack_name`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY p.name, c.position"
	return query, args
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
