package storage

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgres struct {
	database  *sql.DB
	namespace string
}

func NewPostgres(dsn string, namespace string) (Storage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// Таблица значений клиента.
	// Одна строка на ключ в пределах пространства имен (профиля приложения)
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS client_storage (" +
			" namespace VARCHAR (40) NOT NULL," +
			" key VARCHAR (64) NOT NULL," +
			" value TEXT NOT NULL," +
			" PRIMARY KEY (namespace, key)" +
			" );")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &postgres{
		database:  db,
		namespace: namespace,
	}, nil
}

func (store *postgres) Get(ctx context.Context, key string) (string, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT value FROM client_storage"+
			" WHERE namespace = $1"+
			"   AND key = $2",
		store.namespace,
		key)
	var value string
	err := row.Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (store *postgres) Set(ctx context.Context, key string, value string) error {
	_, err := store.database.ExecContext(ctx,
		"INSERT INTO client_storage (namespace, key, value)"+
			" VALUES ($1, $2, $3)"+
			" ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value",
		store.namespace,
		key,
		value)
	return err
}

func (store *postgres) Delete(ctx context.Context, keys ...string) error {
	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, key := range keys {
		_, err = tx.ExecContext(ctx,
			"DELETE FROM client_storage"+
				" WHERE namespace = $1"+
				"   AND key = $2",
			store.namespace,
			key)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (store *postgres) Close() error {
	return store.database.Close()
}
