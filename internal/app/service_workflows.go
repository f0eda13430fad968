package app

import (
	"context"
	"net/http"
	"strings"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/util"
)

type WorkflowInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type StageInput struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// WorkflowDetail is a workflow plus its ordered stages.
type WorkflowDetail struct {
	Workflow store.Workflow
	Stages   []store.Stage
}

func (s *Service) ListWorkflows(ctx context.Context) ([]store.Workflow, error) {
	return s.store.ListWorkflows(ctx)
}

func (s *Service) GetWorkflowDetail(ctx context.Context, workflowID string) (WorkflowDetail, error) {
	workflow, err := s.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return WorkflowDetail{}, err
	}
	stages, err := s.store.ListStages(ctx, workflowID)
	if err != nil {
		return WorkflowDetail{}, err
	}
	return WorkflowDetail{Workflow: workflow, Stages: stages}, nil
}

func (s *Service) CreateWorkflow(ctx context.Context, session Session, input WorkflowInput) (store.Workflow, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Workflow{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	workflow := store.Workflow{
		ID:          util.NewID("wfl"),
		Name:        name,
		Description: input.Description,
		CreatedBy:   session.UserID,
	}
	if err := s.store.InsertWorkflow(ctx, workflow); err != nil {
		return store.Workflow{}, err
	}
	return workflow, nil
}

func (s *Service) UpdateWorkflow(ctx context.Context, workflowID string, input WorkflowInput) (store.Workflow, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Workflow{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if _, err := s.store.GetWorkflow(ctx, workflowID); err != nil {
		return store.Workflow{}, err
	}
	if err := s.store.UpdateWorkflow(ctx, workflowID, name, input.Description); err != nil {
		return store.Workflow{}, err
	}
	return s.store.GetWorkflow(ctx, workflowID)
}

// DeleteWorkflow removes the workflow; tasks attached to it are detached
// rather than deleted (the FK sets workflow_id/stage_id to NULL).
func (s *Service) DeleteWorkflow(ctx context.Context, workflowID string) error {
	if _, err := s.store.GetWorkflow(ctx, workflowID); err != nil {
		return err
	}
	return s.store.DeleteWorkflow(ctx, workflowID)
}

func (s *Service) CreateStage(ctx context.Context, workflowID string, input StageInput) (store.Stage, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Stage{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if _, err := s.store.GetWorkflow(ctx, workflowID); err != nil {
		return store.Stage{}, err
	}
	stage := store.Stage{
		ID:          util.NewID("stg"),
		WorkflowID:  workflowID,
		Name:        name,
		Color:       input.Color,
		Description: input.Description,
	}
	if err := s.store.InsertStage(ctx, stage); err != nil {
		return store.Stage{}, err
	}
	return s.store.GetStage(ctx, stage.ID)
}

func (s *Service) UpdateStage(ctx context.Context, workflowID, stageID string, input StageInput) (store.Stage, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Stage{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	stage, err := s.store.GetStage(ctx, stageID)
	if err != nil {
		return store.Stage{}, err
	}
	if stage.WorkflowID != workflowID {
		return store.Stage{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "stage does not belong to workflow", nil)
	}
	if err := s.store.UpdateStage(ctx, stageID, name, input.Color, input.Description); err != nil {
		return store.Stage{}, err
	}
	return s.store.GetStage(ctx, stageID)
}

// DeleteStage refuses to delete a stage that still has tasks.
func (s *Service) DeleteStage(ctx context.Context, workflowID, stageID string) error {
	stage, err := s.store.GetStage(ctx, stageID)
	if err != nil {
		return err
	}
	if stage.WorkflowID != workflowID {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "stage does not belong to workflow", nil)
	}
	count, err := s.store.StageTaskCount(ctx, stageID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domainError(http.StatusConflict, "STAGE_NOT_EMPTY", "Stage still has tasks", map[string]any{"taskCount": count})
	}
	return s.store.DeleteStage(ctx, stageID)
}
