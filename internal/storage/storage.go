// Package storage реализует хранилище учётных записей поверх database/sql.
// Поддерживаются PostgreSQL (драйвер pgx) и SQLite (modernc.org/sqlite).
// Уникальность имени пользователя обеспечивает первичный ключ таблицы users.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Регистрация драйвера SQLite на чистом Go.
	_ "modernc.org/sqlite"
)

const (
	// DriverPostgres — PostgreSQL через pgx.
	DriverPostgres = "postgres"
	// DriverSQLite — файл или in-memory база SQLite.
	DriverSQLite = "sqlite"
)

// dialect хранит запросы, которые различаются между СУБД.
type dialect struct {
	name        string
	createUsers string
	insertUser  string
	selectHash  string
}

var postgresDialect = dialect{
	name: DriverPostgres,
	createUsers: `CREATE TABLE IF NOT EXISTS users (
			      username TEXT PRIMARY KEY,
			      password TEXT NOT NULL,
			      email    TEXT NOT NULL
			  )`,
	insertUser: `INSERT INTO users (username, password, email)
			  VALUES ($1, $2, $3)`,
	selectHash: `SELECT password FROM users WHERE username = $1`,
}

var sqliteDialect = dialect{
	name: DriverSQLite,
	createUsers: `CREATE TABLE IF NOT EXISTS users (
			      username TEXT PRIMARY KEY,
			      password TEXT NOT NULL,
			      email    TEXT NOT NULL
			  )`,
	insertUser: `INSERT INTO users (username, password, email)
			  VALUES (?, ?, ?)`,
	selectHash: `SELECT password FROM users WHERE username = ?`,
}

// Storage инкапсулирует соединение с базой данных.
type Storage struct {
	DB      *sql.DB
	dialect dialect
}

// New открывает соединение с базой и проверяет его ping-запросом.
func New(ctx context.Context, driver, connectionString string) (*Storage, error) {
	const op = "storage.New"

	var (
		sqlDriver string
		d         dialect
	)
	switch driver {
	case DriverPostgres:
		sqlDriver, d = "pgx", postgresDialect
	case DriverSQLite:
		sqlDriver, d = "sqlite", sqliteDialect
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, driver)
	}

	db, err := sql.Open(sqlDriver, connectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if driver == DriverSQLite {
		// SQLite допускает одного писателя; in-memory база живёт в одном соединении.
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db, dialect: d}, nil
}

// NewWithDB оборачивает уже открытое соединение. Используется в тестах.
func NewWithDB(db *sql.DB, driver string) *Storage {
	d := postgresDialect
	if driver == DriverSQLite {
		d = sqliteDialect
	}
	return &Storage{DB: db, dialect: d}
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.Ping"
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает соединение.
func (s *Storage) Close() error {
	return s.DB.Close()
}
