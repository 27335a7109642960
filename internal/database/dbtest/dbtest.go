// Package dbtest provides a throwaway SQLite database with the seats and
// trips schema so that repository and service tests exercise the same
// conditional UPDATE statements that run against MySQL.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE trips (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		title          TEXT     NOT NULL,
		bus_type       TEXT     NOT NULL,
		route_from     TEXT     NOT NULL,
		route_to       TEXT     NOT NULL,
		depart_at      DATETIME NOT NULL,
		price          INTEGER  NOT NULL,
		description    TEXT     NOT NULL DEFAULT '',
		capacity_total INTEGER  NOT NULL DEFAULT 0,
		is_active      INTEGER  NOT NULL DEFAULT 1,
		admin_wa       TEXT     NOT NULL DEFAULT '',
		bus_image      TEXT     NOT NULL DEFAULT '',
		created_at     DATETIME NOT NULL
	)`,
	`CREATE TABLE seats (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		trip_id       INTEGER  NOT NULL REFERENCES trips (id) ON DELETE CASCADE,
		code          TEXT     NOT NULL,
		status        TEXT     NOT NULL DEFAULT 'AVAILABLE',
		hold_token    TEXT,
		hold_until    DATETIME,
		customer_name TEXT,
		customer_wa   TEXT,
		claim_code    TEXT,
		booked_at     DATETIME,
		booking_code  TEXT,
		updated_at    DATETIME NOT NULL,
		UNIQUE (trip_id, code)
	)`,
	`CREATE INDEX idx_seats_status_hold_until ON seats (status, hold_until)`,
	`CREATE INDEX idx_seats_claim_code ON seats (claim_code)`,
}

// Open creates a fresh database file under t.TempDir and applies the schema.
// The pool is limited to one connection so concurrent test goroutines queue
// on the driver instead of failing with SQLITE_BUSY.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	return open(t, "", 1)
}

// OpenConcurrent is like Open but in WAL mode with conns connections, so
// concurrent callers reach the store on separate connections and are
// serialized by SQLite's write lock.
func OpenConcurrent(t testing.TB, conns int) *sql.DB {
	t.Helper()
	return open(t, "&_pragma=journal_mode(WAL)", conns)
}

func open(t testing.TB, pragmas string, conns int) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seats.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"+pragmas)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = db.Close() })
	for _, stmt := range schema {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db
}

// Trip describes a fixture row for InsertTrip.
type Trip struct {
	Title    string
	Active   bool
	AdminWA  string
	DepartAt time.Time
}

// InsertTrip adds a trip and returns its id.
func InsertTrip(t testing.TB, db *sql.DB, tr Trip) uint64 {
	t.Helper()
	if tr.Title == "" {
		tr.Title = "Jakarta - Bandung"
	}
	if tr.DepartAt.IsZero() {
		tr.DepartAt = time.Date(2030, 1, 2, 8, 0, 0, 0, time.UTC)
	}
	active := 0
	if tr.Active {
		active = 1
	}
	res, err := db.ExecContext(context.Background(),
		`INSERT INTO trips (title, bus_type, route_from, route_to, depart_at, price, capacity_total, is_active, admin_wa, created_at)
		 VALUES (?, 'EXEC', 'Jakarta', 'Bandung', ?, 150000, 40, ?, ?, ?)`,
		tr.Title, tr.DepartAt, active, tr.AdminWA, time.Now().UTC().Truncate(time.Second))
	if err != nil {
		t.Fatalf("insert trip: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("trip id: %v", err)
	}
	return uint64(id)
}
