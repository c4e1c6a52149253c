package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kevinyhe/handy/internal/gesture"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// SettingsRepository persists the live tuning values. Each settings field is
// stored as its own key-value row, so loading over defaults tolerates both
// missing and unknown keys across versions.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Save writes all settings fields, replacing any existing values.
func (r *SettingsRepository) Save(s gesture.Settings) error {
	fields, err := settingsFields(s)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for key, value := range fields {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		); err != nil {
			return fmt.Errorf("failed to save setting %q: %w", key, err)
		}
	}

	return tx.Commit()
}

// Load reads stored settings over the defaults. Keys absent from the
// database keep their default values; unknown keys are ignored.
func (r *SettingsRepository) Load() (gesture.Settings, error) {
	s := gesture.DefaultSettings()

	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	fields := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return s, err
		}
		fields[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	if len(fields) == 0 {
		return s, nil
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(merged, &s); err != nil {
		return s, fmt.Errorf("failed to decode stored settings: %w", err)
	}

	return s, nil
}

// settingsFields flattens a Settings value into its JSON field map.
func settingsFields(s gesture.Settings) (map[string]string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(fields))
	for key, value := range fields {
		out[key] = string(value)
	}
	return out, nil
}
