// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

// SQLStore implements StateStore over database/sql, generalized across
// backends by Dialect. The dialect branch lives entirely here and in
// dialect.go; callers never see "?" vs "$1" or RETURNING differences.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an already-open *sql.DB with dialect d and ensures the
// schema exists.
func NewSQLStore(ctx context.Context, db *sql.DB, d Dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("session store: migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) q(query string) string { return s.dialect.Placeholder(query) }

func (s *SQLStore) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.q(query), args...)
}

func (s *SQLStore) migrate(ctx context.Context) error {
	pk := s.dialect.AutoIncrementPK("id")
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			owner_user_id TEXT NOT NULL,
			name TEXT,
			config_id TEXT,
			config_snapshot TEXT,
			duration_days INTEGER NOT NULL,
			speed_factor REAL NOT NULL,
			status TEXT NOT NULL,
			created_at_ms BIGINT NOT NULL,
			started_at_ms BIGINT,
			expires_at_ms BIGINT,
			stopped_at_ms BIGINT,
			interrupted_at_ms BIGINT,
			simulated_timestamp BIGINT,
			current_tick BIGINT NOT NULL DEFAULT 0,
			last_snapshot_at_ms BIGINT,
			stop_reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_owner ON sessions(owner_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at_ms)`,
		`CREATE TABLE IF NOT EXISTS idempotency (
			key TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			expires_at_ms BIGINT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS car_events (
			%s,
			session_id TEXT NOT NULL,
			car_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			location TEXT,
			payload TEXT,
			timestamp_ms BIGINT NOT NULL
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_car_events_session ON car_events(session_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS stop_events (
			%s,
			session_id TEXT NOT NULL,
			stop_id TEXT NOT NULL,
			location TEXT,
			reason TEXT,
			type TEXT,
			category TEXT,
			severity TEXT,
			start_time_ms BIGINT NOT NULL,
			end_time_ms BIGINT,
			duration_ms BIGINT,
			status TEXT NOT NULL
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_stop_events_session ON stop_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_stop_events_session_status ON stop_events(session_id, status)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS buffer_states (
			%s,
			session_id TEXT NOT NULL,
			buffer_id TEXT NOT NULL,
			capacity INTEGER NOT NULL,
			current_count INTEGER NOT NULL,
			car_ids TEXT,
			status TEXT,
			timestamp_ms BIGINT NOT NULL
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_buffer_states_session ON buffer_states(session_id, buffer_id, timestamp_ms)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS plant_snapshots (
			%s,
			session_id TEXT NOT NULL,
			timestamp_ms BIGINT NOT NULL,
			totals TEXT,
			snapshot_data TEXT
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_plant_snapshots_session ON plant_snapshots(session_id, timestamp_ms)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS oee (
			%s,
			session_id TEXT NOT NULL,
			date TEXT NOT NULL,
			location TEXT,
			availability REAL,
			performance REAL,
			quality REAL,
			oee REAL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS mttr_mtbf (
			%s,
			session_id TEXT NOT NULL,
			date TEXT NOT NULL,
			location TEXT,
			mttr REAL,
			mtbf REAL
		)`, pk),
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

// --- Sessions ---

func (s *SQLStore) CreateSession(ctx context.Context, sess *model.Session) error {
	_, err := s.exec(ctx, `INSERT INTO sessions (
		session_id, owner_user_id, name, config_id, config_snapshot, duration_days, speed_factor,
		status, created_at_ms, started_at_ms, expires_at_ms, stopped_at_ms, interrupted_at_ms,
		simulated_timestamp, current_tick, last_snapshot_at_ms, stop_reason
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.SessionID, sess.OwnerUserID, sess.Name, sess.ConfigID, sess.ConfigSnapshot,
		sess.DurationDays, sess.SpeedFactor, sess.Status, ms(sess.CreatedAt),
		msPtr(sess.StartedAt), msPtr(sess.ExpiresAt), msPtr(sess.StoppedAt), msPtr(sess.InterruptedAt),
		sess.SimulatedTimestamp, sess.CurrentTick, msPtr(sess.LastSnapshotAt), sess.StopReason,
	)
	return err
}

func (s *SQLStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`), sessionID)
	return scanSession(row)
}

func (s *SQLStore) GetSessionForOwner(ctx context.Context, sessionID, ownerUserID string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ? AND owner_user_id = ?`), sessionID, ownerUserID)
	return scanSession(row)
}

const sessionColumns = `session_id, owner_user_id, name, config_id, config_snapshot, duration_days, speed_factor,
	status, created_at_ms, started_at_ms, expires_at_ms, stopped_at_ms, interrupted_at_ms,
	simulated_timestamp, current_tick, last_snapshot_at_ms, stop_reason`

func (s *SQLStore) ListSessions(ctx context.Context, filter SessionFilter) ([]*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1=1`
	var args []interface{}
	if filter.OwnerUserID != "" {
		query += ` AND owner_user_id = ?`
		args = append(args, filter.OwnerUserID)
	}
	if len(filter.Statuses) > 0 {
		query += ` AND status IN (`
		for i, st := range filter.Statuses {
			if i > 0 {
				query += `,`
			}
			query += `?`
			args = append(args, string(st))
		}
		query += `)`
	}
	if !filter.ExpiresBefore.IsZero() {
		query += ` AND expires_at_ms < ?`
		args = append(args, ms(filter.ExpiresBefore))
	}
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Session
	for rows.Next() {
		sess, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLStore) ScanSessions(ctx context.Context, fn func(*model.Session) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		sess, err := scanSessionRows(rows)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLStore) UpdateSession(ctx context.Context, sessionID string, fn func(*model.Session) error) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, s.q(`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`), sessionID)
	sess, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, sql.ErrNoRows)
	}

	if err := fn(sess); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, s.q(`UPDATE sessions SET
		name = ?, config_id = ?, config_snapshot = ?, duration_days = ?, speed_factor = ?,
		status = ?, started_at_ms = ?, expires_at_ms = ?, stopped_at_ms = ?, interrupted_at_ms = ?,
		simulated_timestamp = ?, current_tick = ?, last_snapshot_at_ms = ?, stop_reason = ?
		WHERE session_id = ?`),
		sess.Name, sess.ConfigID, sess.ConfigSnapshot, sess.DurationDays, sess.SpeedFactor,
		sess.Status, msPtr(sess.StartedAt), msPtr(sess.ExpiresAt), msPtr(sess.StoppedAt), msPtr(sess.InterruptedAt),
		sess.SimulatedTimestamp, sess.CurrentTick, msPtr(sess.LastSnapshotAt), sess.StopReason,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLStore) CountActiveByUser(ctx context.Context, ownerUserID string) (int, error) {
	return s.countActive(ctx, `SELECT COUNT(*) FROM sessions WHERE owner_user_id = ? AND status IN (?, ?)`, ownerUserID, string(model.StatusRunning), string(model.StatusPaused))
}

func (s *SQLStore) CountActiveGlobal(ctx context.Context) (int, error) {
	return s.countActive(ctx, `SELECT COUNT(*) FROM sessions WHERE status IN (?, ?)`, string(model.StatusRunning), string(model.StatusPaused))
}

func (s *SQLStore) countActive(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(query), args...).Scan(&n)
	return n, err
}

func (s *SQLStore) DeleteSessionCascade(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := []string{"car_events", "stop_events", "buffer_states", "plant_snapshots", "oee", "mttr_mtbf"}
	for _, tbl := range tables {
		if _, err := tx.ExecContext(ctx, s.q(fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?`, tbl)), sessionID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM sessions WHERE session_id = ?`), sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Idempotency ---

func (s *SQLStore) GetIdempotentSessionID(ctx context.Context, key string) (string, bool, error) {
	var sessionID string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, s.q(`SELECT session_id, expires_at_ms FROM idempotency WHERE key = ?`), key).Scan(&sessionID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if expiresAt < time.Now().UnixMilli() {
		return "", false, nil
	}
	return sessionID, true, nil
}

func (s *SQLStore) PutIdempotencyKey(ctx context.Context, key, sessionID string, ttl time.Duration) error {
	_, err := s.exec(ctx, `DELETE FROM idempotency WHERE key = ?`, key)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO idempotency (key, session_id, expires_at_ms) VALUES (?, ?, ?)`,
		key, sessionID, time.Now().Add(ttl).UnixMilli())
	return err
}

// --- Event tables ---

func (s *SQLStore) AppendCarEvent(ctx context.Context, e *model.CarEvent) error {
	_, err := s.exec(ctx, `INSERT INTO car_events (session_id, car_id, event_type, location, payload, timestamp_ms)
		VALUES (?, ?, ?, ?, ?, ?)`, e.SessionID, e.CarID, e.EventType, e.Location, e.Payload, ms(e.Timestamp))
	return err
}

func (s *SQLStore) AppendStopEvent(ctx context.Context, e *model.StopEvent) error {
	_, err := s.exec(ctx, `INSERT INTO stop_events (session_id, stop_id, location, reason, type, category, severity, start_time_ms, end_time_ms, duration_ms, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.StopID, e.Location, e.Reason, e.Type, e.Category, e.Severity,
		ms(e.StartTime), msPtr(e.EndTime), e.DurationMS, e.Status)
	return err
}

func (s *SQLStore) CompleteStopEvent(ctx context.Context, sessionID, stopID string, endTime time.Time, durationMS int64) error {
	_, err := s.exec(ctx, `UPDATE stop_events SET end_time_ms = ?, duration_ms = ?, status = ?
		WHERE session_id = ? AND stop_id = ? AND status = ?`,
		ms(endTime), durationMS, string(model.StopCompleted), sessionID, stopID, string(model.StopInProgress))
	return err
}

func (s *SQLStore) AppendBufferState(ctx context.Context, b *model.BufferState) error {
	carIDs, _ := json.Marshal(b.CarIDs)
	_, err := s.exec(ctx, `INSERT INTO buffer_states (session_id, buffer_id, capacity, current_count, car_ids, status, timestamp_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, b.SessionID, b.BufferID, b.Capacity, b.CurrentCount, string(carIDs), b.Status, ms(b.Timestamp))
	return err
}

func (s *SQLStore) AppendPlantSnapshot(ctx context.Context, p *model.PlantSnapshot) error {
	_, err := s.exec(ctx, `INSERT INTO plant_snapshots (session_id, timestamp_ms, totals, snapshot_data)
		VALUES (?, ?, ?, ?)`, p.SessionID, ms(p.Timestamp), p.Totals, p.SnapshotData)
	return err
}

func (s *SQLStore) AppendOEE(ctx context.Context, o *model.OEERecord) error {
	_, err := s.exec(ctx, `INSERT INTO oee (session_id, date, location, availability, performance, quality, oee)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, o.SessionID, o.Date, o.Location, o.Availability, o.Performance, o.Quality, o.OEE)
	return err
}

func (s *SQLStore) AppendMTTRMTBF(ctx context.Context, m *model.MTTRMTBFRecord) error {
	_, err := s.exec(ctx, `INSERT INTO mttr_mtbf (session_id, date, location, mttr, mtbf)
		VALUES (?, ?, ?, ?, ?)`, m.SessionID, m.Date, m.Location, m.MTTR, m.MTBF)
	return err
}

func clampLimit(limit int) (int, bool) {
	if limit <= 0 || limit > MaxEventRowLimit {
		return MaxEventRowLimit, limit > MaxEventRowLimit
	}
	return limit, false
}

func (s *SQLStore) ListCarEvents(ctx context.Context, f EventFilter) ([]model.CarEvent, bool, error) {
	limit, truncated := clampLimit(f.Limit)
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, session_id, car_id, event_type, location, payload, timestamp_ms
		FROM car_events WHERE session_id = ? ORDER BY id ASC LIMIT ?`), f.SessionID, limit+1)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	var out []model.CarEvent
	for rows.Next() {
		var e model.CarEvent
		var tsMS int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.CarID, &e.EventType, &e.Location, &e.Payload, &tsMS); err != nil {
			return nil, false, err
		}
		e.Timestamp = fromMS(tsMS)
		out = append(out, e)
	}
	if len(out) > limit {
		out = out[:limit]
		truncated = true
	}
	return out, truncated, rows.Err()
}

func (s *SQLStore) ListStopEvents(ctx context.Context, f EventFilter) ([]model.StopEvent, bool, error) {
	limit, truncated := clampLimit(f.Limit)
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, session_id, stop_id, location, reason, type, category, severity,
		start_time_ms, end_time_ms, duration_ms, status FROM stop_events WHERE session_id = ? ORDER BY id ASC LIMIT ?`), f.SessionID, limit+1)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	var out []model.StopEvent
	for rows.Next() {
		e, err := scanStopEventRow(rows)
		if err != nil {
			return nil, false, err
		}
		out = append(out, *e)
	}
	if len(out) > limit {
		out = out[:limit]
		truncated = true
	}
	return out, truncated, rows.Err()
}

func (s *SQLStore) ListInProgressStops(ctx context.Context, sessionID string) ([]model.StopEvent, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, session_id, stop_id, location, reason, type, category, severity,
		start_time_ms, end_time_ms, duration_ms, status FROM stop_events
		WHERE session_id = ? AND status = ? ORDER BY id ASC`), sessionID, string(model.StopInProgress))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.StopEvent
	for rows.Next() {
		e, err := scanStopEventRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanStopEventRow(rows *sql.Rows) (*model.StopEvent, error) {
	var e model.StopEvent
	var startMS int64
	var endMS, durMS sql.NullInt64
	if err := rows.Scan(&e.ID, &e.SessionID, &e.StopID, &e.Location, &e.Reason, &e.Type, &e.Category, &e.Severity,
		&startMS, &endMS, &durMS, &e.Status); err != nil {
		return nil, err
	}
	e.StartTime = fromMS(startMS)
	if endMS.Valid {
		t := fromMS(endMS.Int64)
		e.EndTime = &t
	}
	if durMS.Valid {
		e.DurationMS = &durMS.Int64
	}
	return &e, nil
}

func (s *SQLStore) LatestPlantSnapshot(ctx context.Context, sessionID string) (*model.PlantSnapshot, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT id, session_id, timestamp_ms, totals, snapshot_data
		FROM plant_snapshots WHERE session_id = ? ORDER BY timestamp_ms DESC, id DESC LIMIT 1`), sessionID)
	var p model.PlantSnapshot
	var tsMS int64
	err := row.Scan(&p.ID, &p.SessionID, &tsMS, &p.Totals, &p.SnapshotData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Timestamp = fromMS(tsMS)
	return &p, nil
}

// LatestBufferStates returns the latest row per distinct buffer_id, with
// ties on timestamp broken by the larger id (last-writer-wins, per §4.4).
func (s *SQLStore) LatestBufferStates(ctx context.Context, sessionID string) ([]model.BufferState, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT b.id, b.session_id, b.buffer_id, b.capacity, b.current_count, b.car_ids, b.status, b.timestamp_ms
		FROM buffer_states b
		INNER JOIN (
			SELECT buffer_id, MAX(timestamp_ms) AS max_ts
			FROM buffer_states WHERE session_id = ?
			GROUP BY buffer_id
		) latest ON b.buffer_id = latest.buffer_id AND b.timestamp_ms = latest.max_ts
		WHERE b.session_id = ?
		ORDER BY b.buffer_id ASC, b.id DESC
	`), sessionID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := map[string]bool{}
	var out []model.BufferState
	for rows.Next() {
		var b model.BufferState
		var carIDsJSON string
		var tsMS int64
		if err := rows.Scan(&b.ID, &b.SessionID, &b.BufferID, &b.Capacity, &b.CurrentCount, &carIDsJSON, &b.Status, &tsMS); err != nil {
			return nil, err
		}
		if seen[b.BufferID] {
			continue // tie-break: first row per buffer after ORDER BY id DESC wins
		}
		seen[b.BufferID] = true
		b.Timestamp = fromMS(tsMS)
		_ = json.Unmarshal([]byte(carIDsJSON), &b.CarIDs)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLStore) DistinctCompletedCarIDs(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT DISTINCT car_id FROM car_events
		WHERE session_id = ? AND event_type = ?`), sessionID, string(model.CarEventCompleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- scan / time helpers ---

func scanSession(row *sql.Row) (*model.Session, error) {
	return scanSessionInto(row)
}

func scanSessionRows(rows *sql.Rows) (*model.Session, error) {
	return scanSessionInto(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSessionInto(sc rowScanner) (*model.Session, error) {
	var sess model.Session
	var createdAt int64
	var startedAt, expiresAt, stoppedAt, interruptedAt, simulatedTS, lastSnapshotAt sql.NullInt64

	err := sc.Scan(
		&sess.SessionID, &sess.OwnerUserID, &sess.Name, &sess.ConfigID, &sess.ConfigSnapshot,
		&sess.DurationDays, &sess.SpeedFactor, &sess.Status, &createdAt, &startedAt, &expiresAt,
		&stoppedAt, &interruptedAt, &simulatedTS, &sess.CurrentTick, &lastSnapshotAt, &sess.StopReason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	sess.CreatedAt = fromMS(createdAt)
	sess.StartedAt = nullToTimePtr(startedAt)
	sess.ExpiresAt = nullToTimePtr(expiresAt)
	sess.StoppedAt = nullToTimePtr(stoppedAt)
	sess.InterruptedAt = nullToTimePtr(interruptedAt)
	sess.LastSnapshotAt = nullToTimePtr(lastSnapshotAt)
	if simulatedTS.Valid {
		sess.SimulatedTimestamp = &simulatedTS.Int64
	}
	return &sess, nil
}

func ms(t time.Time) int64 { return t.UnixMilli() }

func msPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func fromMS(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullToTimePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMS(n.Int64)
	return &t
}
