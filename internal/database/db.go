package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-analytics/internal/config"
)

// DSN renders the driver connection string for cfg.
//
// parseTime maps DATETIME to time.Time and loc=UTC keeps stored instants
// in UTC; calendar-day logic applies APP_TIMEZONE on top.  With
// clientFoundRows an UPDATE that writes an unchanged value still reports
// the matched row, so zero affected rows means the row is missing.
func DSN(cfg config.DBConfig) string {
	m := mysql.NewConfig()
	m.User = cfg.User
	m.Passwd = cfg.Pass
	m.Net = "tcp"
	m.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	m.DBName = cfg.Name
	m.ParseTime = true
	m.Loc = time.UTC
	m.ClientFoundRows = true
	m.Params = map[string]string{"charset": "utf8mb4"}
	return m.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
