package store

import (
	"context"
	"fmt"
)

const taskColumns = `id, title, description, status, priority, due_date, workflow_id, stage_id, created_by, created_at, updated_at`

func (s *PostgresStore) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	items := make([]Task, 0)
	for rows.Next() {
		var item Task
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Status,
			&item.Priority,
			&item.DueDate,
			&item.WorkflowID,
			&item.StageID,
			&item.CreatedBy,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, taskID string) (Task, error) {
	var item Task
	err := s.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id=$1
	`, taskID).Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Status,
		&item.Priority,
		&item.DueDate,
		&item.WorkflowID,
		&item.StageID,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return Task{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertTask(ctx context.Context, task Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, due_date, workflow_id, stage_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, task.ID, task.Title, task.Description, task.Status, task.Priority, task.DueDate, task.WorkflowID, task.StageID, task.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateTask(ctx context.Context, task Task) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title=$2, description=$3, status=$4, priority=$5, due_date=$6, workflow_id=$7, stage_id=$8, updated_at=NOW()
		WHERE id=$1
	`, task.ID, task.Title, task.Description, task.Status, task.Priority, task.DueDate, task.WorkflowID, task.StageID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, taskID, status string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status=$2, updated_at=NOW() WHERE id=$1
	`, taskID, status)
	if err != nil {
		return false, fmt.Errorf("update task status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update task status rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) MoveTaskToStage(ctx context.Context, taskID string, workflowID, stageID *string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET workflow_id=$2, stage_id=$3, updated_at=NOW() WHERE id=$1
	`, taskID, workflowID, stageID)
	if err != nil {
		return fmt.Errorf("move task to stage: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1`, taskID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddParticipant(ctx context.Context, taskID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_participants (task_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (task_id, user_id) DO NOTHING
	`, taskID, userID)
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveParticipant(ctx context.Context, taskID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM task_participants WHERE task_id=$1 AND user_id=$2
	`, taskID, userID)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListParticipants(ctx context.Context, taskID string) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.avatar_color
		FROM task_participants tp
		JOIN users u ON u.id = tp.user_id
		WHERE tp.task_id=$1
		ORDER BY u.username ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.AvatarColor); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertSubtask(ctx context.Context, subtask Subtask) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_subtasks (id, task_id, title, completed)
		VALUES ($1, $2, $3, $4)
	`, subtask.ID, subtask.TaskID, subtask.Title, subtask.Completed)
	if err != nil {
		return fmt.Errorf("insert subtask: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSubtasks(ctx context.Context, taskID string) ([]Subtask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, title, completed, created_at
		FROM task_subtasks
		WHERE task_id=$1
		ORDER BY created_at ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	items := make([]Subtask, 0)
	for rows.Next() {
		var item Subtask
		if err := rows.Scan(&item.ID, &item.TaskID, &item.Title, &item.Completed, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtasks: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE task_subtasks SET completed = NOT completed
		WHERE task_id=$1 AND id=$2
	`, taskID, subtaskID)
	if err != nil {
		return false, fmt.Errorf("toggle subtask: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("toggle subtask rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) DeleteSubtask(ctx context.Context, taskID, subtaskID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM task_subtasks WHERE task_id=$1 AND id=$2`, taskID, subtaskID)
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertStep(ctx context.Context, step Step) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_steps (id, task_id, title, sort_order, completed)
		VALUES ($1, $2, $3,
			COALESCE((SELECT MAX(sort_order) + 1 FROM task_steps WHERE task_id=$2), 0),
			$4)
	`, step.ID, step.TaskID, step.Title, step.Completed)
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSteps(ctx context.Context, taskID string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, title, sort_order, completed, created_at
		FROM task_steps
		WHERE task_id=$1
		ORDER BY sort_order ASC, created_at ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	items := make([]Step, 0)
	for rows.Next() {
		var item Step
		if err := rows.Scan(&item.ID, &item.TaskID, &item.Title, &item.SortOrder, &item.Completed, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ToggleStep(ctx context.Context, taskID, stepID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE task_steps SET completed = NOT completed
		WHERE task_id=$1 AND id=$2
	`, taskID, stepID)
	if err != nil {
		return false, fmt.Errorf("toggle step: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("toggle step rows: %w", err)
	}
	return affected > 0, nil
}

// ReorderSteps rewrites sort_order to match the given id order.
// Ids not belonging to the task are ignored by the WHERE clause.
func (s *PostgresStore) ReorderSteps(ctx context.Context, taskID string, orderedIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder steps: %w", err)
	}
	for index, stepID := range orderedIDs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE task_steps SET sort_order=$3 WHERE task_id=$1 AND id=$2
		`, taskID, stepID, index); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reorder step %s: %w", stepID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder steps: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteStep(ctx context.Context, taskID, stepID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM task_steps WHERE task_id=$1 AND id=$2`, taskID, stepID)
	if err != nil {
		return fmt.Errorf("delete step: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertComment(ctx context.Context, comment Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_comments (id, task_id, author_id, body)
		VALUES ($1, $2, $3, $4)
	`, comment.ID, comment.TaskID, comment.AuthorID, comment.Body)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListComments(ctx context.Context, taskID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.task_id, c.author_id, u.username, c.body, c.created_at
		FROM task_comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.task_id=$1
		ORDER BY c.created_at ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	items := make([]Comment, 0)
	for rows.Next() {
		var item Comment
		if err := rows.Scan(&item.ID, &item.TaskID, &item.AuthorID, &item.AuthorName, &item.Body, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return items, nil
}
