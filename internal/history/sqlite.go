package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"aqwidget/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db     *sql.DB
	log    logx.Logger
	maxAge time.Duration

	opCount    atomic.Uint64
	pruneEvery uint64
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log, maxAge: cfg.MaxAge, pruneEvery: 100}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Append(ctx context.Context, location string, o Observation) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return errors.New("location is required")
	}
	if o.At.IsZero() {
		o.At = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO observations(location, at, aqi, pm25, pm10) VALUES(?,?,?,?,?)`,
		location, o.At.UnixMilli(), nullInt(o.AQI), nullFloat(o.PM25), nullFloat(o.PM10),
	)
	if err == nil && s.opCount.Add(1)%s.pruneEvery == 0 {
		pctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		if perr := s.pruneExpired(pctx); perr != nil {
			s.log.Debug("history prune failed", logx.Err(perr))
		}
		cancel()
	}
	return err
}

func (s *sqliteStore) Window(ctx context.Context, location string, since time.Time) ([]Observation, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, aqi, pm25, pm10 FROM observations
		 WHERE location = ? AND at >= ? ORDER BY at ASC`,
		location, since.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var (
			ms   int64
			aqi  sql.NullInt64
			pm25 sql.NullFloat64
			pm10 sql.NullFloat64
		)
		if err := rows.Scan(&ms, &aqi, &pm25, &pm10); err != nil {
			return nil, err
		}
		o := Observation{At: time.UnixMilli(ms).UTC()}
		if aqi.Valid {
			v := int(aqi.Int64)
			o.AQI = &v
		}
		if pm25.Valid {
			v := pm25.Float64
			o.PM25 = &v
		}
		if pm10.Valid {
			v := pm10.Float64
			o.PM10 = &v
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *sqliteStore) pruneExpired(ctx context.Context) error {
	cutoff := time.Now().Add(-s.maxAge).UnixMilli()
	_, err := s.db.ExecContext(ctx, `DELETE FROM observations WHERE at < ?`, cutoff)
	return err
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
