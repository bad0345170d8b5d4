package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/definition"
)

// DefinitionRepository implements repository.DefinitionRepository for SQLite
type DefinitionRepository struct {
	db *DB
}

// NewDefinitionRepository creates a new DefinitionRepository
func NewDefinitionRepository(db *DB) *DefinitionRepository {
	return &DefinitionRepository{db: db}
}

// LoadAll returns every saved definition keyed by name
func (r *DefinitionRepository) LoadAll(ctx context.Context) (map[string]*definition.RaceDefinition, error) {
	query := `
		SELECT name, min_players, max_players, time_limit_seconds, laps,
			finish_x, finish_y, finish_z, finish_radius
		FROM race_definitions
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	defer rows.Close()

	defs := make(map[string]*definition.RaceDefinition)
	for rows.Next() {
		var def definition.RaceDefinition
		var fx, fy, fz, fr sql.NullFloat64
		if err := rows.Scan(
			&def.Name,
			&def.MinPlayers,
			&def.MaxPlayers,
			&def.TimeLimitSeconds,
			&def.Laps,
			&fx, &fy, &fz, &fr,
		); err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		if fr.Valid {
			def.Course.Finish = &course.Checkpoint{
				Position: course.Vec3{X: fx.Float64, Y: fy.Float64, Z: fz.Float64},
				Radius:   fr.Float64,
			}
		}
		defs[def.Name] = &def
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating definition rows: %w", err)
	}

	if err := r.loadCheckpoints(ctx, defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *DefinitionRepository) loadCheckpoints(ctx context.Context, defs map[string]*definition.RaceDefinition) error {
	query := `
		SELECT race_name, x, y, z, radius
		FROM race_checkpoints
		ORDER BY race_name, position
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to load checkpoints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var cp course.Checkpoint
		if err := rows.Scan(&name, &cp.Position.X, &cp.Position.Y, &cp.Position.Z, &cp.Radius); err != nil {
			return fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		if def, ok := defs[name]; ok {
			def.Course.Checkpoints = append(def.Course.Checkpoints, cp)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating checkpoint rows: %w", err)
	}
	return nil
}

// SaveAll replaces the stored definitions with defs in one transaction
func (r *DefinitionRepository) SaveAll(ctx context.Context, defs map[string]*definition.RaceDefinition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM race_definitions`); err != nil {
		return fmt.Errorf("failed to clear definitions: %w", err)
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := insertDefinition(ctx, tx, defs[name]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit definitions: %w", err)
	}
	return nil
}

func insertDefinition(ctx context.Context, tx *sql.Tx, def *definition.RaceDefinition) error {
	var fx, fy, fz, fr sql.NullFloat64
	if f := def.Course.Finish; f != nil {
		fx = sql.NullFloat64{Float64: f.Position.X, Valid: true}
		fy = sql.NullFloat64{Float64: f.Position.Y, Valid: true}
		fz = sql.NullFloat64{Float64: f.Position.Z, Valid: true}
		fr = sql.NullFloat64{Float64: f.Radius, Valid: true}
	}

	query := `
		INSERT INTO race_definitions (
			name, min_players, max_players, time_limit_seconds, laps,
			finish_x, finish_y, finish_z, finish_radius
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		def.Name,
		def.MinPlayers,
		def.MaxPlayers,
		def.TimeLimitSeconds,
		def.Laps,
		fx, fy, fz, fr,
	); err != nil {
		return fmt.Errorf("failed to save definition %q: %w", def.Name, err)
	}

	for i, cp := range def.Course.Checkpoints {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO race_checkpoints (race_name, position, x, y, z, radius) VALUES (?, ?, ?, ?, ?, ?)`,
			def.Name, i, cp.Position.X, cp.Position.Y, cp.Position.Z, cp.Radius,
		); err != nil {
			return fmt.Errorf("failed to save checkpoint %d of %q: %w", i, def.Name, err)
		}
	}
	return nil
}
