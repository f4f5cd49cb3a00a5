// Package storage keeps the history of queried servers in SQLite.
// The history is only written by the query path and read by the admin API and maintenance.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/woozymasta/mcstatus/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

const serverColumns = `
	edition, hostname, port, address, country_code, version,
	players, max_players, latency, online, last_error,
	count, first_seen, last_seen`

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(ctx context.Context, dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// UpsertServer records one query of a server keyed by edition, hostname and port.
// A failed query marks the server offline but keeps the last known status fields.
func (r *Repository) UpsertServer(ctx context.Context, s models.ServerRecord) error {
	query := `
	INSERT INTO servers (` + serverColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	ON CONFLICT(edition, hostname, port) DO UPDATE SET
		count = count + 1,
		last_seen = excluded.last_seen,
		online = excluded.online,
		last_error = excluded.last_error,
		latency = excluded.latency,

		address      = CASE WHEN excluded.address != '' THEN excluded.address ELSE servers.address END,
		country_code = CASE WHEN excluded.country_code != '' THEN excluded.country_code ELSE servers.country_code END,

		-- Status fields only change on a successful query
		version     = CASE WHEN excluded.online THEN excluded.version ELSE servers.version END,
		players     = CASE WHEN excluded.online THEN excluded.players ELSE servers.players END,
		max_players = CASE WHEN excluded.online THEN excluded.max_players ELSE servers.max_players END;
	`

	var latency sql.NullFloat64
	if s.Latency != nil {
		latency = sql.NullFloat64{Float64: *s.Latency, Valid: true}
	}

	lastSeen := dbTime(s.LastSeen)
	firstSeen := dbTime(s.FirstSeen)
	if s.FirstSeen.IsZero() {
		firstSeen = lastSeen
	}

	_, err := r.db.ExecContext(ctx, query,
		s.Edition, s.Hostname, s.Port, s.Address, s.CountryCode, s.Version,
		s.Players, s.MaxPlayers, latency, s.Online, s.LastError,
		firstSeen, lastSeen,
	)

	return err
}

// GetServers retrieves all servers, most recently seen first.
func (r *Repository) GetServers(ctx context.Context) ([]models.ServerRecord, error) {
	return r.list(ctx, `SELECT`+serverColumns+` FROM servers ORDER BY last_seen DESC`)
}

// GetOffline retrieves servers whose last query failed.
func (r *Repository) GetOffline(ctx context.Context) ([]models.ServerRecord, error) {
	return r.list(ctx, `SELECT`+serverColumns+` FROM servers WHERE online = 0 ORDER BY last_seen DESC`)
}

// GetServer retrieves one server, nil when it is unknown.
func (r *Repository) GetServer(ctx context.Context, edition models.Edition, hostname string, port int) (*models.ServerRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+serverColumns+` FROM servers WHERE edition = ? AND hostname = ? AND port = ?`,
		edition, hostname, port,
	)

	s, err := scanServer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

// DeleteServer removes one server and reports whether it existed.
func (r *Repository) DeleteServer(ctx context.Context, edition models.Edition, hostname string, port int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM servers WHERE edition = ? AND hostname = ? AND port = ?`,
		edition, hostname, port,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteSeenBefore removes servers last seen before t.
func (r *Repository) DeleteSeenBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM servers WHERE last_seen < ?`, dbTime(t))
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// DeleteOffline removes servers whose last query failed.
func (r *Repository) DeleteOffline(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM servers WHERE online = 0`)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]models.ServerRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var servers []models.ServerRecord
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		servers = append(servers, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanServer(row scanner) (*models.ServerRecord, error) {
	var (
		s       models.ServerRecord
		latency sql.NullFloat64
	)

	if err := row.Scan(
		&s.Edition, &s.Hostname, &s.Port, &s.Address, &s.CountryCode, &s.Version,
		&s.Players, &s.MaxPlayers, &latency, &s.Online, &s.LastError,
		&s.Count, &s.FirstSeen, &s.LastSeen,
	); err != nil {
		return nil, err
	}

	if latency.Valid {
		s.Latency = &latency.Float64
	}

	return &s, nil
}

// dbTime normalizes timestamps so their text form sorts chronologically.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
