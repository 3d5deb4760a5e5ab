package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Setting is the stored scalar setting of one event on one controller.
type Setting struct {
	BlockID   int64
	EventType string
	Value     string
}

// Controller is the stored configuration of a controller block.
type Controller struct {
	BlockID      int64
	Threshold    float64
	LowerOrEqual bool
	AndMode      bool
	Working      bool
	// SelectedEvent is the tag of the selected event, empty if none.
	SelectedEvent string
}

// SaveSetting inserts or replaces the setting of eventType on blockID.
func (s *Store) SaveSetting(ctx context.Context, blockID int64, eventType, value string) error {
	if eventType == "" {
		return fmt.Errorf("save setting: empty event type")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_settings (block_id, event_type, value)
		VALUES (?, ?, ?)
		ON CONFLICT(block_id, event_type) DO UPDATE SET value = excluded.value
	`, blockID, eventType, value)
	if err != nil {
		return fmt.Errorf("save setting: %w", err)
	}
	return nil
}

// LoadSetting returns the setting of eventType on blockID. found is false if
// none is stored.
func (s *Store) LoadSetting(ctx context.Context, blockID int64, eventType string) (value string, found bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT value FROM event_settings
		WHERE block_id = ? AND event_type = ?
	`, blockID, eventType).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load setting: %w", err)
	}
	return value, true, nil
}

// DeleteSetting removes the setting of eventType on blockID. Reports whether
// a row was removed.
func (s *Store) DeleteSetting(ctx context.Context, blockID int64, eventType string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM event_settings WHERE block_id = ? AND event_type = ?
	`, blockID, eventType)
	if err != nil {
		return false, fmt.Errorf("delete setting: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete setting: %w", err)
	}
	return n > 0, nil
}

// ListSettings returns every stored setting ordered by block and event type.
func (s *Store) ListSettings(ctx context.Context) ([]Setting, error) {
	return s.querySettings(ctx, `
		SELECT block_id, event_type, value FROM event_settings
		ORDER BY block_id ASC, event_type ASC COLLATE BINARY
	`)
}

// ListSettingsByEvent returns the settings of one event type ordered by block.
func (s *Store) ListSettingsByEvent(ctx context.Context, eventType string) ([]Setting, error) {
	return s.querySettings(ctx, `
		SELECT block_id, event_type, value FROM event_settings
		WHERE event_type = ?
		ORDER BY block_id ASC
	`, eventType)
}

func (s *Store) querySettings(ctx context.Context, query string, args ...any) ([]Setting, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.BlockID, &st.EventType, &st.Value); err != nil {
			return nil, fmt.Errorf("list settings: scan: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return out, nil
}

// SaveController inserts or replaces the configuration of a controller.
func (s *Store) SaveController(ctx context.Context, c Controller) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO controllers (block_id, threshold, lower_or_equal, and_mode, working, selected_event)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(block_id) DO UPDATE SET
			threshold = excluded.threshold,
			lower_or_equal = excluded.lower_or_equal,
			and_mode = excluded.and_mode,
			working = excluded.working,
			selected_event = excluded.selected_event
	`, c.BlockID, c.Threshold, c.LowerOrEqual, c.AndMode, c.Working, c.SelectedEvent)
	if err != nil {
		return fmt.Errorf("save controller %d: %w", c.BlockID, err)
	}
	return nil
}

// LoadController returns the stored configuration of blockID. found is false
// if none is stored.
func (s *Store) LoadController(ctx context.Context, blockID int64) (c Controller, found bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT block_id, threshold, lower_or_equal, and_mode, working, selected_event
		FROM controllers WHERE block_id = ?
	`, blockID).Scan(&c.BlockID, &c.Threshold, &c.LowerOrEqual, &c.AndMode, &c.Working, &c.SelectedEvent)
	if errors.Is(err, sql.ErrNoRows) {
		return Controller{}, false, nil
	}
	if err != nil {
		return Controller{}, false, fmt.Errorf("load controller %d: %w", blockID, err)
	}
	return c, true, nil
}
