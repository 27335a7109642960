package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Options describes the MySQL server holding the seat ledger.
type Options struct {
	User, Pass, Host, Port, Name string
	MaxOpenConns                 int
}

// Config builds the driver configuration for o.  DATETIME columns are parsed
// into UTC time.Time values so hold deadlines compare consistently with the
// service clock.
//
// Seat transitions decide success from RowsAffected == 1, so the driver must
// report matched rows rather than changed rows (CLIENT_FOUND_ROWS): a re-hold
// by the current holder within the same second writes identical values and
// still has to count as success.
func Config(o Options) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = o.User
	mc.Passwd = o.Pass
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(o.Host, o.Port)
	mc.DBName = o.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.ClientFoundRows = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc
}

// Open connects to MySQL and verifies the connection.
func Open(o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", Config(o).FormatDSN())
	if err != nil {
		return nil, err
	}

	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 25
	}
	db.SetMaxOpenConns(o.MaxOpenConns)
	db.SetMaxIdleConns(o.MaxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
