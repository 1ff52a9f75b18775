package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/BartekS5/order-etl/internal/config"
	"github.com/BartekS5/order-etl/pkg/etlerr"
)

const appName = "order-etl"

// ConnectPostgres opens the source pool and waits at most
// ep.ConnectTimeout for the first successful ping.
func ConnectPostgres(ctx context.Context, ep config.Endpoint, logger *zap.Logger) (*sql.DB, error) {
	logger.Info("connecting to source database",
		zap.String("driver", "pgx"), zap.String("addr", ep.Address()), zap.String("database", ep.Name))
	db, err := open(ctx, "pgx", PostgresDSN(ep), ep.ConnectTimeout)
	if err != nil {
		return nil, etlerr.Connection("connect source database",
			etlerr.WithCause(err), etlerr.WithDetail("addr", ep.Address()))
	}
	logger.Info("connected to source database")
	return db, nil
}

// ConnectSQLServer opens the destination pool and waits at most
// ep.ConnectTimeout for the first successful ping.
func ConnectSQLServer(ctx context.Context, ep config.Endpoint, logger *zap.Logger) (*sql.DB, error) {
	logger.Info("connecting to destination database",
		zap.String("driver", "sqlserver"), zap.String("addr", ep.Address()), zap.String("database", ep.Name))
	db, err := open(ctx, "sqlserver", SQLServerDSN(ep), ep.ConnectTimeout)
	if err != nil {
		return nil, etlerr.Connection("connect destination database",
			etlerr.WithCause(err), etlerr.WithDetail("addr", ep.Address()))
	}
	logger.Info("connected to destination database")
	return db, nil
}

// PostgresDSN renders ep as a pgx connection URL.
func PostgresDSN(ep config.Endpoint) string {
	q := url.Values{}
	if ep.Options != "" {
		q.Set("sslmode", ep.Options)
	}
	q.Set("connect_timeout", strconv.Itoa(seconds(ep.ConnectTimeout)))
	q.Set("application_name", appName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(ep.User, ep.Password),
		Host:     ep.Address(),
		Path:     "/" + ep.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SQLServerDSN renders ep as a go-mssqldb connection URL.
func SQLServerDSN(ep config.Endpoint) string {
	timeout := strconv.Itoa(seconds(ep.ConnectTimeout))
	q := url.Values{}
	q.Set("database", ep.Name)
	if ep.Options != "" {
		q.Set("encrypt", ep.Options)
	}
	q.Set("connection timeout", timeout)
	q.Set("dial timeout", timeout)
	q.Set("app name", appName)

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(ep.User, ep.Password),
		Host:     ep.Address(),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func open(ctx context.Context, driver, dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	// One connection, used sequentially for the whole run.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// seconds rounds d up to whole seconds, with a floor of one.
func seconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
