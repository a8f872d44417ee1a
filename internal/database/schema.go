package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema lists the DDL statements in dependency order.  seats references
// bookings, so bookings is created first.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS shows (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(255)    NOT NULL,
		start_time  DATETIME(6)     NOT NULL,
		total_seats INT UNSIGNED    NOT NULL,
		created_at  DATETIME(6)     NOT NULL,
		INDEX idx_shows_start_time (start_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		show_id      BIGINT UNSIGNED NOT NULL,
		user_email   VARCHAR(255)    NOT NULL,
		seat_numbers JSON            NOT NULL,
		status       ENUM('PENDING','CONFIRMED','FAILED') NOT NULL DEFAULT 'PENDING',
		reason       VARCHAR(255)    NULL,
		failed_seats JSON            NULL,
		created_at   DATETIME(6)     NOT NULL,
		INDEX idx_bookings_status_created (status, created_at),
		CONSTRAINT fk_bookings_show FOREIGN KEY (show_id) REFERENCES shows (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seats (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		show_id     BIGINT UNSIGNED NOT NULL,
		seat_number INT UNSIGNED    NOT NULL,
		booked      BOOLEAN         NOT NULL DEFAULT FALSE,
		booking_id  BIGINT UNSIGNED NULL,
		UNIQUE KEY uq_seats_show_number (show_id, seat_number),
		CONSTRAINT fk_seats_show FOREIGN KEY (show_id) REFERENCES shows (id) ON DELETE CASCADE,
		CONSTRAINT fk_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables if they do not exist yet.  It is safe to run
// on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
