package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

const defaultCollection = "tasks"

// SQLiteGateway persists the whole task collection as one JSON payload row.
type SQLiteGateway struct {
	DB         *sql.DB
	collection string
}

func NewSQLiteGateway(db *sql.DB) *SQLiteGateway {
	return &SQLiteGateway{DB: db, collection: defaultCollection}
}

func (g *SQLiteGateway) Load(ctx context.Context) ([]model.Task, error) {
	var payload string
	err := g.DB.QueryRowContext(ctx, "SELECT payload FROM collections WHERE name = ?", g.collection).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", g.collection, err)
	}
	return decodeTasks([]byte(payload))
}

func (g *SQLiteGateway) Save(ctx context.Context, tasks []model.Task) error {
	payload, err := encodeTasks(tasks)
	if err != nil {
		return err
	}

	_, err = g.DB.ExecContext(ctx,
		`INSERT INTO collections (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		g.collection, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save %s: %w", g.collection, err)
	}
	return nil
}

func encodeTasks(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return payload, nil
}

func decodeTasks(payload []byte) ([]model.Task, error) {
	var tasks []model.Task
	if err := json.Unmarshal(payload, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}
