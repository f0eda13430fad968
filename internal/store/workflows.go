package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_by, created_at, updated_at
		FROM workflows
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	items := make([]Workflow, 0)
	for rows.Next() {
		var item Workflow
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.CreatedBy, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetWorkflow(ctx context.Context, workflowID string) (Workflow, error) {
	var item Workflow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_by, created_at, updated_at
		FROM workflows
		WHERE id=$1
	`, workflowID).Scan(&item.ID, &item.Name, &item.Description, &item.CreatedBy, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Workflow{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertWorkflow(ctx context.Context, workflow Workflow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, name, description, created_by)
		VALUES ($1, $2, $3, $4)
	`, workflow.ID, workflow.Name, workflow.Description, workflow.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateWorkflow(ctx context.Context, workflowID, name, description string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflows SET name=$2, description=$3, updated_at=NOW() WHERE id=$1
	`, workflowID, name, description)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteWorkflow(ctx context.Context, workflowID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id=$1`, workflowID)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListStages(ctx context.Context, workflowID string) ([]Stage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workflow_id, name, color, description, sort_order
		FROM workflow_stages
		WHERE workflow_id=$1
		ORDER BY sort_order ASC, name ASC
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	items := make([]Stage, 0)
	for rows.Next() {
		var item Stage
		if err := rows.Scan(&item.ID, &item.WorkflowID, &item.Name, &item.Color, &item.Description, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetStage(ctx context.Context, stageID string) (Stage, error) {
	var item Stage
	err := s.db.QueryRowContext(ctx, `
		SELECT id, workflow_id, name, color, description, sort_order
		FROM workflow_stages
		WHERE id=$1
	`, stageID).Scan(&item.ID, &item.WorkflowID, &item.Name, &item.Color, &item.Description, &item.SortOrder)
	if err != nil {
		return Stage{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertStage(ctx context.Context, stage Stage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_stages (id, workflow_id, name, color, description, sort_order)
		VALUES ($1, $2, $3, $4, $5,
			COALESCE((SELECT MAX(sort_order) + 1 FROM workflow_stages WHERE workflow_id=$2), 0))
	`, stage.ID, stage.WorkflowID, stage.Name, stage.Color, stage.Description)
	if err != nil {
		return fmt.Errorf("insert stage: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateStage(ctx context.Context, stageID, name, color, description string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflow_stages SET name=$2, color=$3, description=$4 WHERE id=$1
	`, stageID, name, color, description)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

func (s *PostgresStore) StageTaskCount(ctx context.Context, stageID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE stage_id=$1`, stageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stage tasks: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteStage(ctx context.Context, stageID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workflow_stages WHERE id=$1`, stageID)
	if err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	return nil
}
