package database

import (
	"context"
	"database/sql"
	"fmt"
)

// mysqlSchema creates the two tables the reservation core works on.  Seats
// are unique per (trip_id, code); the secondary indexes back the sweep
// (status, hold_until) and the claim and booking lookups.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS trips (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title          VARCHAR(120) NOT NULL,
		bus_type       VARCHAR(20)  NOT NULL,
		route_from     VARCHAR(80)  NOT NULL,
		route_to       VARCHAR(80)  NOT NULL,
		depart_at      DATETIME     NOT NULL,
		price          INT UNSIGNED NOT NULL,
		description    TEXT         NOT NULL,
		capacity_total INT UNSIGNED NOT NULL DEFAULT 0,
		is_active      TINYINT(1)   NOT NULL DEFAULT 1,
		admin_wa       VARCHAR(30)  NOT NULL DEFAULT '',
		bus_image      VARCHAR(255) NOT NULL DEFAULT '',
		created_at     DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seats (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		trip_id       BIGINT UNSIGNED NOT NULL,
		code          VARCHAR(10)  NOT NULL,
		status        VARCHAR(12)  NOT NULL DEFAULT 'AVAILABLE',
		hold_token    VARCHAR(64)  NULL,
		hold_until    DATETIME     NULL,
		customer_name VARCHAR(120) NULL,
		customer_wa   VARCHAR(30)  NULL,
		claim_code    VARCHAR(20)  NULL,
		booked_at     DATETIME     NULL,
		booking_code  VARCHAR(30)  NULL,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_seats_trip_code (trip_id, code),
		KEY idx_seats_trip_status (trip_id, status),
		KEY idx_seats_status_hold_until (status, hold_until),
		KEY idx_seats_claim_code (claim_code),
		KEY idx_seats_booking_code (booking_code),
		CONSTRAINT fk_seats_trip FOREIGN KEY (trip_id) REFERENCES trips (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the schema when it does not exist yet.  It is a no-op on
// a database that already has both tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range mysqlSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
