package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/httpledger/httpledger/pkg/logger"
	"github.com/httpledger/httpledger/pkg/record"
)

// currentSchemaVersion is the latest logs schema version.
// Bump this when adding migrations.
const currentSchemaVersion = 1

// SQLiteStore mirrors every Upsert and Clear of an in-memory store into
// a sqlite table and reloads it at startup, so the history survives a
// process restart. Disk write failures are logged and absorbed: the
// in-memory copy stays authoritative and the capture path never fails
// because of durability.
//
// Writes happen synchronously on the calling goroutine; callers on a
// latency-sensitive path should size MaxBodySize accordingly.
type SQLiteStore struct {
	mem *MemoryStore
	db  *sql.DB
	log logger.Logger
}

// OpenSQLite opens (creating if needed) the database at path, applies
// migrations and loads the persisted history into memory.
func OpenSQLite(path string, maxEntries int, log logger.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		mem: NewMemory(maxEntries),
		db:  db,
		log: log,
	}
	if err := s.loadAll(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Memory exposes the in-memory layer, e.g. to attach an eviction hook.
func (s *SQLiteStore) Memory() *MemoryStore {
	return s.mem
}

// Upsert stores the record in memory and mirrors it to disk.
func (s *SQLiteStore) Upsert(rec *record.Record) error {
	if err := s.mem.Upsert(rec); err != nil {
		return err
	}
	if err := s.persist(rec); err != nil {
		s.log.Warn("failed to persist transaction %s: %v", rec.ID, err)
	}
	return nil
}

// Get returns the record for id from memory.
func (s *SQLiteStore) Get(id string) (*record.Record, bool) {
	return s.mem.Get(id)
}

// List returns the in-memory snapshot, newest start first.
func (s *SQLiteStore) List() []*record.Record {
	return s.mem.List()
}

// Clear drops all records from memory and disk.
func (s *SQLiteStore) Clear() error {
	if err := s.mem.Clear(); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM logs`); err != nil {
		s.log.Warn("failed to clear persisted transactions: %v", err)
	}
	return nil
}

// Len returns the number of records held in memory.
func (s *SQLiteStore) Len() int {
	return s.mem.Len()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS logs (
		  id                 TEXT PRIMARY KEY,
		  start_ts           INTEGER NOT NULL,
		  duration_ms        INTEGER,
		  method             TEXT NOT NULL,
		  url                TEXT NOT NULL,
		  host               TEXT,
		  path               TEXT,
		  query              TEXT,
		  req_headers_json   TEXT,
		  req_body           TEXT,
		  req_body_truncated INTEGER NOT NULL DEFAULT 0,
		  res_status         INTEGER,
		  res_headers_json   TEXT,
		  res_body           TEXT,
		  res_body_truncated INTEGER NOT NULL DEFAULT 0,
		  protocol           TEXT,
		  ssl                INTEGER NOT NULL DEFAULT 0,
		  error              INTEGER NOT NULL DEFAULT 0,
		  error_message      TEXT,
		  platform           TEXT,
		  correlation_id     TEXT,
		  server_addr        TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_logs_start_ts ON logs(start_ts DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, currentSchemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) persist(rec *record.Record) error {
	_, err := s.db.Exec(`
		INSERT INTO logs (
		  id, start_ts, duration_ms, method, url, host, path, query,
		  req_headers_json, req_body, req_body_truncated,
		  res_status, res_headers_json, res_body, res_body_truncated,
		  protocol, ssl, error, error_message, platform, correlation_id, server_addr
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  start_ts = excluded.start_ts,
		  duration_ms = excluded.duration_ms,
		  method = excluded.method,
		  url = excluded.url,
		  host = excluded.host,
		  path = excluded.path,
		  query = excluded.query,
		  req_headers_json = excluded.req_headers_json,
		  req_body = excluded.req_body,
		  req_body_truncated = excluded.req_body_truncated,
		  res_status = excluded.res_status,
		  res_headers_json = excluded.res_headers_json,
		  res_body = excluded.res_body,
		  res_body_truncated = excluded.res_body_truncated,
		  protocol = excluded.protocol,
		  ssl = excluded.ssl,
		  error = excluded.error,
		  error_message = excluded.error_message,
		  platform = excluded.platform,
		  correlation_id = excluded.correlation_id,
		  server_addr = excluded.server_addr`,
		rec.ID, rec.StartTS, nullInt64(rec.DurationMS), rec.Method, rec.URL,
		nullIfEmpty(rec.Host), nullIfEmpty(rec.Path), nullIfEmpty(rec.Query),
		headersJSON(rec.ReqHeaders), nullString(rec.ReqBody), boolToInt(rec.ReqBodyTruncated),
		nullIntPtr(rec.ResStatus), headersJSON(rec.ResHeaders), nullString(rec.ResBody),
		boolToInt(rec.ResBodyTruncated), nullString(rec.Protocol), boolToInt(rec.SSL),
		boolToInt(rec.IsError), nullString(rec.ErrorMessage), nullIfEmpty(rec.Platform),
		nullString(rec.CorrelationID), nullIfEmpty(rec.ServerAddr))
	return err
}

func (s *SQLiteStore) loadAll() error {
	rows, err := s.db.Query(`
		SELECT id, start_ts, duration_ms, method, url, host, path, query,
		       req_headers_json, req_body, req_body_truncated,
		       res_status, res_headers_json, res_body, res_body_truncated,
		       protocol, ssl, error, error_message, platform, correlation_id, server_addr
		FROM logs ORDER BY start_ts ASC`)
	if err != nil {
		return fmt.Errorf("failed to load persisted transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec              record.Record
			durationMS       sql.NullInt64
			host, path, q    sql.NullString
			reqHeaders       sql.NullString
			reqBody          sql.NullString
			reqBodyTruncated int64
			resStatus        sql.NullInt64
			resHeaders       sql.NullString
			resBody          sql.NullString
			resBodyTruncated int64
			protocol         sql.NullString
			sslFlag          int64
			errorFlag        int64
			errorMessage     sql.NullString
			platform         sql.NullString
			correlationID    sql.NullString
			serverAddr       sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.StartTS, &durationMS, &rec.Method, &rec.URL,
			&host, &path, &q, &reqHeaders, &reqBody, &reqBodyTruncated,
			&resStatus, &resHeaders, &resBody, &resBodyTruncated,
			&protocol, &sslFlag, &errorFlag, &errorMessage, &platform,
			&correlationID, &serverAddr); err != nil {
			return fmt.Errorf("failed to scan persisted transaction: %w", err)
		}
		if durationMS.Valid {
			rec.DurationMS = &durationMS.Int64
		}
		rec.Host = host.String
		rec.Path = path.String
		rec.Query = q.String
		rec.ReqHeaders = parseHeaders(reqHeaders)
		rec.ReqBody = fromNullString(reqBody)
		rec.ReqBodyTruncated = reqBodyTruncated != 0
		if resStatus.Valid {
			status := int(resStatus.Int64)
			rec.ResStatus = &status
		}
		rec.ResHeaders = parseHeaders(resHeaders)
		rec.ResBody = fromNullString(resBody)
		rec.ResBodyTruncated = resBodyTruncated != 0
		rec.Protocol = fromNullString(protocol)
		rec.SSL = sslFlag != 0
		rec.IsError = errorFlag != 0
		rec.ErrorMessage = fromNullString(errorMessage)
		rec.Platform = platform.String
		rec.CorrelationID = fromNullString(correlationID)
		rec.ServerAddr = serverAddr.String

		if err := s.mem.Upsert(&rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

func headersJSON(h record.Headers) any {
	if h == nil {
		return nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil
	}
	return string(data)
}

func parseHeaders(ns sql.NullString) record.Headers {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var h record.Headers
	if err := json.Unmarshal([]byte(ns.String), &h); err != nil {
		return nil
	}
	return h
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullIntPtr(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
