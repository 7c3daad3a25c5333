package storage

import (
	"context"
	"database/sql"

	// We include the postgresql driver in our implementation, so users can pick "postgres" via configuration.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

func init() {
	if err := RegisterStorage(new(SQLDB)); err != nil {
		panic(err)
	}
}

const (
	// SQLConnectionStringOption is the database connection string
	SQLConnectionStringOption OptionKey = "sql-connection-string-option"
	// SQLDriverNameOption is the database/sql driver name, defaulting to postgres
	SQLDriverNameOption OptionKey = "sql-driver-name-option"
)

// SQLDB is a relational implementation of ServiceStorage using a single key_values table
type SQLDB struct {
	db               *sql.DB
	connectionString string
}

func (s *SQLDB) Init(opts ...Option) error {
	connString, ok := stringOption(SQLConnectionStringOption, opts...)
	if !ok {
		return errors.New("sql connection string option is required")
	}
	driverName, ok := stringOption(SQLDriverNameOption, opts...)
	if !ok {
		driverName = "postgres"
	}
	s.connectionString = connString

	db, err := sql.Open(driverName, connString)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}

	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS key_values (
    namespace varchar,
    key varchar,
    value bytea,
    PRIMARY KEY (namespace, key)
);`); err != nil {
		return errors.Wrap(err, "creating key_values table")
	}

	s.db = db
	return nil
}

func (s *SQLDB) Type() Type {
	return Postgres
}

func (s *SQLDB) URI() string {
	return s.connectionString
}

func (s *SQLDB) IsOpen() bool {
	if s.db == nil {
		return false
	}
	return s.db.Ping() == nil
}

func (s *SQLDB) Close() error {
	return s.db.Close()
}

func (s *SQLDB) Write(ctx context.Context, namespace, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO key_values (namespace, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = $3`,
		namespace, key, value)
	return err
}

func (s *SQLDB) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM key_values WHERE namespace = $1 AND key = $2`,
		namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return value, err
}

func (s *SQLDB) Exists(ctx context.Context, namespace, key string) (bool, error) {
	value, err := s.Read(ctx, namespace, key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

func (s *SQLDB) ReadAll(ctx context.Context, namespace string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM key_values WHERE namespace = $1`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err = rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, rows.Err()
}

func (s *SQLDB) ReadAllKeys(ctx context.Context, namespace string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM key_values WHERE namespace = $1`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLDB) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM key_values WHERE namespace = $1 AND key = $2`, namespace, key)
	return err
}

func (s *SQLDB) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM key_values WHERE namespace = $1`, namespace)
	return err
}

var _ ServiceStorage = (*SQLDB)(nil)
