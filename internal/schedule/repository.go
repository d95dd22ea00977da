package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finchrobotics/fleet-core/internal/infrastructure/database"
)

// Repository stores task records.
type Repository interface {
	Save(ctx context.Context, task Task) error
	Get(ctx context.Context, id string) (Task, error)
	List(ctx context.Context) ([]Task, error)
}

// SQLiteRepository persists tasks in the embedded database. The plan
// is stored as a JSON column; tasks are read whole, never by plan
// internals, so a relational breakdown would buy nothing.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a repository over an open database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save inserts a task record.
func (r *SQLiteRepository) Save(ctx context.Context, task Task) error {
	planJSON, err := json.Marshal(task.Plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, instruction, site, status, plan, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		task.ID,
		task.Instruction,
		task.Site,
		string(task.Status),
		string(planJSON),
		task.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting task %s: %w", task.ID, err)
	}
	return nil
}

// Get returns one task by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, instruction, site, status, plan, created_at
		FROM tasks WHERE id = ?
	`, id)

	task, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return Task{}, fmt.Errorf("reading task %s: %w", id, err)
	}
	return task, nil
}

// List returns all tasks, newest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, instruction, site, status, plan, created_at
		FROM tasks ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// scanTask decodes one task row from either a *sql.Row or *sql.Rows.
func scanTask(scan func(dest ...any) error) (Task, error) {
	var (
		task      Task
		status    string
		planJSON  string
		createdAt string
	)
	if err := scan(&task.ID, &task.Instruction, &task.Site, &status, &planJSON, &createdAt); err != nil {
		return Task{}, err
	}

	task.Status = TaskStatus(status)
	if err := json.Unmarshal([]byte(planJSON), &task.Plan); err != nil {
		return Task{}, fmt.Errorf("decoding plan: %w", err)
	}
	// Format is controlled by Save.
	task.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt) //nolint:errcheck
	return task, nil
}
