package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Supported DB_DRIVER values.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Params describes how to reach the database.
type Params struct {
	Driver string
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
}

// DSN builds the driver specific connection string.
func (p Params) DSN() (driverName, dsn string, err error) {
	switch p.Driver {
	case DriverMySQL, "":
		auth := p.User
		if p.Pass != "" {
			auth = fmt.Sprintf("%s:%s", p.User, p.Pass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		return "mysql", fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, p.Host, p.Port, p.Name), nil
	case DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(p.User, p.Pass),
			Host:     p.Host + ":" + p.Port,
			Path:     "/" + p.Name,
			RawQuery: "sslmode=disable&timezone=UTC",
		}
		if p.Pass == "" {
			u.User = url.User(p.User)
		}
		return "pgx", u.String(), nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", p.Driver)
	}
}

// Open connects to the configured database and verifies the connection.
func Open(p Params) (*sql.DB, error) {
	driverName, dsn, err := p.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
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
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Rebind rewrites '?' placeholders to '$n' for Postgres. Queries in this
// project never contain a literal question mark.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
