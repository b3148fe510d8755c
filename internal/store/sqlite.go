package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/specialistvlad/gridsweep/internal/results"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sweeps (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS points (
	sweep_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	failed INTEGER NOT NULL DEFAULT 0,
	error_kind TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (sweep_id, idx),
	FOREIGN KEY (sweep_id) REFERENCES sweeps(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS fields (
	sweep_id TEXT NOT NULL,
	point_idx INTEGER NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('input', 'result')),
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (sweep_id, point_idx, role, position),
	FOREIGN KEY (sweep_id, point_idx) REFERENCES points(sweep_id, idx) ON DELETE CASCADE
);
`

const (
	roleInput  = "input"
	roleResult = "result"
)

type sqliteCodec struct{}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Save replaces any sweep stored under the same identifier.
func (sqliteCodec) Save(ctx context.Context, path string, view results.View) (err error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sweeps WHERE id = ?`, view.ID()); err != nil {
		return fmt.Errorf("failed to replace sweep: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO sweeps (id) VALUES (?)`, view.ID()); err != nil {
		return fmt.Errorf("failed to insert sweep: %w", err)
	}

	pointStmt, err := tx.PrepareContext(ctx, `INSERT INTO points (sweep_id, idx, failed, error_kind, error) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer pointStmt.Close()
	fieldStmt, err := tx.PrepareContext(ctx, `INSERT INTO fields (sweep_id, point_idx, role, position, name, kind, value) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer fieldStmt.Close()

	for _, dp := range view.Points() {
		if _, err = pointStmt.ExecContext(ctx, view.ID(), dp.Index, dp.Failed, dp.ErrorKind, dp.Error); err != nil {
			return fmt.Errorf("failed to insert point %d: %w", dp.Index, err)
		}
		for role, fields := range map[string][]results.Field{roleInput: dp.Inputs, roleResult: dp.Results} {
			for pos, f := range encodeFields(fields) {
				if _, err = fieldStmt.ExecContext(ctx, view.ID(), dp.Index, role, pos, f.Name, f.Kind, f.Value); err != nil {
					return fmt.Errorf("failed to insert field %q of point %d: %w", f.Name, dp.Index, err)
				}
			}
		}
	}
	return tx.Commit()
}

// Load reads the most recently saved sweep.
func (sqliteCodec) Load(ctx context.Context, path string) (results.View, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return results.View{}, err
	}
	defer db.Close()

	var id string
	err = db.QueryRowContext(ctx, `SELECT id FROM sweeps ORDER BY seq DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return results.View{}, errors.New("database holds no sweeps")
	}
	if err != nil {
		return results.View{}, fmt.Errorf("failed to query sweeps: %w", err)
	}
	return loadSweep(ctx, db, id)
}

// LoadSweep reads the sweep with the given identifier from a database file.
func LoadSweep(ctx context.Context, path, id string) (results.View, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return results.View{}, err
	}
	defer db.Close()
	return loadSweep(ctx, db, id)
}

func loadSweep(ctx context.Context, db *sql.DB, id string) (results.View, error) {
	rows, err := db.QueryContext(ctx, `SELECT idx, failed, error_kind, error FROM points WHERE sweep_id = ? ORDER BY idx`, id)
	if err != nil {
		return results.View{}, fmt.Errorf("failed to query points: %w", err)
	}
	var points []results.DataPoint
	for rows.Next() {
		var dp results.DataPoint
		if err := rows.Scan(&dp.Index, &dp.Failed, &dp.ErrorKind, &dp.Error); err != nil {
			rows.Close()
			return results.View{}, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, dp)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return results.View{}, err
	}

	byIndex := make(map[int]*results.DataPoint, len(points))
	for i := range points {
		byIndex[points[i].Index] = &points[i]
	}

	frows, err := db.QueryContext(ctx, `SELECT point_idx, role, name, kind, value FROM fields WHERE sweep_id = ? ORDER BY point_idx, role, position`, id)
	if err != nil {
		return results.View{}, fmt.Errorf("failed to query fields: %w", err)
	}
	defer frows.Close()
	for frows.Next() {
		var (
			idx  int
			role string
			f    field
		)
		if err := frows.Scan(&idx, &role, &f.Name, &f.Kind, &f.Value); err != nil {
			return results.View{}, fmt.Errorf("failed to scan field: %w", err)
		}
		dp, ok := byIndex[idx]
		if !ok {
			return results.View{}, fmt.Errorf("field %q references unknown point %d", f.Name, idx)
		}
		decoded, err := decodeField(f)
		if err != nil {
			return results.View{}, fmt.Errorf("point %d: %w", idx, err)
		}
		if role == roleInput {
			dp.Inputs = append(dp.Inputs, decoded)
		} else {
			dp.Results = append(dp.Results, decoded)
		}
	}
	if err := frows.Err(); err != nil {
		return results.View{}, err
	}
	return results.NewView(id, points), nil
}
