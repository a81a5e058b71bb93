// Package persistence provides SQLite-based storage for user presets and
// the last session's parameters.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/codeart/internal/scene"
	"github.com/talgya/codeart/internal/studio"
)

// Metadata keys for the saved session.
const (
	MetaParams = "session_params"
	MetaCode   = "session_code"
	MetaMode   = "session_mode"
)

// DB wraps a SQLite connection. It implements studio.PresetStore.
type DB struct {
	conn *sqlx.DB
}

var _ studio.PresetStore = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS presets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		thumbnail TEXT NOT NULL DEFAULT '',
		params_json TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS studio_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_presets_created ON presets(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type presetRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Thumbnail  string `db:"thumbnail"`
	ParamsJSON string `db:"params_json"`
	Code       string `db:"code"`
	CreatedAt  int64  `db:"created_at"`
}

func (r presetRow) preset() (studio.Preset, error) {
	var params scene.ArtParams
	if err := json.Unmarshal([]byte(r.ParamsJSON), &params); err != nil {
		return studio.Preset{}, fmt.Errorf("decode params of preset %s: %w", r.ID, err)
	}
	return studio.Preset{
		ID:        r.ID,
		Name:      r.Name,
		Thumbnail: r.Thumbnail,
		Params:    params,
		Code:      r.Code,
		CreatedAt: r.CreatedAt,
	}, nil
}

// SavePreset inserts or replaces a user preset.
func (db *DB) SavePreset(p studio.Preset) error {
	paramsJSON, err := json.Marshal(p.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	_, err = db.conn.NamedExec(`INSERT OR REPLACE INTO presets
		(id, name, thumbnail, params_json, code, created_at)
		VALUES (:id, :name, :thumbnail, :params_json, :code, :created_at)`,
		presetRow{
			ID:         p.ID,
			Name:       p.Name,
			Thumbnail:  p.Thumbnail,
			ParamsJSON: string(paramsJSON),
			Code:       p.Code,
			CreatedAt:  p.CreatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("insert preset %s: %w", p.ID, err)
	}
	return nil
}

// GetPreset returns a single user preset.
func (db *DB) GetPreset(id string) (studio.Preset, error) {
	var row presetRow
	err := db.conn.Get(&row, "SELECT id, name, thumbnail, params_json, code, created_at FROM presets WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return studio.Preset{}, studio.ErrPresetNotFound
	}
	if err != nil {
		return studio.Preset{}, fmt.Errorf("select preset %s: %w", id, err)
	}
	return row.preset()
}

// ListPresets returns every user preset, oldest first. Rows whose params no
// longer decode are skipped and logged.
func (db *DB) ListPresets() ([]studio.Preset, error) {
	var rows []presetRow
	err := db.conn.Select(&rows,
		"SELECT id, name, thumbnail, params_json, code, created_at FROM presets ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("select presets: %w", err)
	}

	presets := make([]studio.Preset, 0, len(rows))
	for _, r := range rows {
		p, err := r.preset()
		if err != nil {
			slog.Error("skipping unreadable preset", "id", r.ID, "error", err)
			continue
		}
		presets = append(presets, p)
	}
	return presets, nil
}

// DeletePreset removes a user preset.
func (db *DB) DeletePreset(id string) error {
	res, err := db.conn.Exec("DELETE FROM presets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete preset %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return studio.ErrPresetNotFound
	}
	return nil
}

// SaveMeta stores a key-value pair in studio metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO studio_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM studio_meta WHERE key = ?", key)
	return value, err
}

// HasSession reports whether a previous session was saved.
func (db *DB) HasSession() bool {
	_, err := db.GetMeta(MetaParams)
	return err == nil
}

// SaveSession stores the store's current parameters, code and mode.
func (db *DB) SaveSession(s *studio.Store) error {
	paramsJSON, err := json.Marshal(s.Params())
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range map[string]string{
		MetaParams: string(paramsJSON),
		MetaCode:   s.Code(),
		MetaMode:   string(s.Mode()),
	} {
		if _, err := tx.Exec("INSERT OR REPLACE INTO studio_meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("save meta %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("session saved", "seed", s.Params().Seed)
	return nil
}

// RestoreSession loads the saved session into s. It returns false when no
// session was saved.
func (db *DB) RestoreSession(s *studio.Store) (bool, error) {
	raw, err := db.GetMeta(MetaParams)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get session params: %w", err)
	}

	var params scene.ArtParams
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return false, fmt.Errorf("decode session params: %w", err)
	}
	s.ReplaceParams(params)

	if code, err := db.GetMeta(MetaCode); err == nil {
		s.SetCode(code)
	}
	if mode, err := db.GetMeta(MetaMode); err == nil {
		if err := s.SetMode(studio.Mode(mode)); err != nil {
			slog.Warn("ignoring saved editor mode", "mode", mode, "error", err)
		}
	}
	return true, nil
}
