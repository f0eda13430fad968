package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/search"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/util"
)

type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	WorkflowID  *string    `json:"workflowId"`
	StageID     *string    `json:"stageId"`
}

// TaskDetail is a task with its related collections, as returned by the
// single-task endpoint.
type TaskDetail struct {
	Task         store.Task
	Participants []store.User
	Subtasks     []store.Subtask
	Steps        []store.Step
	Comments     []store.Comment
}

func (s *Service) ListTasks(ctx context.Context) ([]store.Task, error) {
	return s.store.ListTasks(ctx)
}

func (s *Service) GetTaskDetail(ctx context.Context, taskID string) (TaskDetail, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return TaskDetail{}, err
	}
	participants, err := s.store.ListParticipants(ctx, taskID)
	if err != nil {
		return TaskDetail{}, err
	}
	subtasks, err := s.store.ListSubtasks(ctx, taskID)
	if err != nil {
		return TaskDetail{}, err
	}
	steps, err := s.store.ListSteps(ctx, taskID)
	if err != nil {
		return TaskDetail{}, err
	}
	comments, err := s.store.ListComments(ctx, taskID)
	if err != nil {
		return TaskDetail{}, err
	}
	return TaskDetail{
		Task:         task,
		Participants: participants,
		Subtasks:     subtasks,
		Steps:        steps,
		Comments:     comments,
	}, nil
}

func (s *Service) CreateTask(ctx context.Context, session Session, input TaskInput) (store.Task, error) {
	task, err := s.taskFromInput(ctx, input)
	if err != nil {
		return store.Task{}, err
	}
	task.ID = util.NewID("tsk")
	task.CreatedBy = session.UserID

	if err := s.store.InsertTask(ctx, task); err != nil {
		return store.Task{}, err
	}
	s.indexTask(task)
	return task, nil
}

func (s *Service) UpdateTask(ctx context.Context, taskID string, input TaskInput) (store.Task, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return store.Task{}, err
	}
	task, err := s.taskFromInput(ctx, input)
	if err != nil {
		return store.Task{}, err
	}
	task.ID = taskID
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return store.Task{}, err
	}
	updated, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return store.Task{}, err
	}
	s.indexTask(updated)
	return updated, nil
}

func (s *Service) taskFromInput(ctx context.Context, input TaskInput) (store.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return store.Task{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	status := input.Status
	if status == "" {
		status = "todo"
	}
	if _, ok := allowedTaskStatuses[status]; !ok {
		return store.Task{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown status %q", status), nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = "medium"
	}
	if _, ok := allowedTaskPriorities[priority]; !ok {
		return store.Task{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown priority %q", priority), nil)
	}
	if err := s.validateStageRef(ctx, input.WorkflowID, input.StageID); err != nil {
		return store.Task{}, err
	}
	return store.Task{
		Title:       title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		WorkflowID:  input.WorkflowID,
		StageID:     input.StageID,
	}, nil
}

// validateStageRef enforces that a stage reference always belongs to the
// referenced workflow, and never appears without one.
func (s *Service) validateStageRef(ctx context.Context, workflowID, stageID *string) error {
	if stageID == nil {
		return nil
	}
	if workflowID == nil {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "stageId requires workflowId", nil)
	}
	stage, err := s.store.GetStage(ctx, *stageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "stage not found", nil)
		}
		return err
	}
	if stage.WorkflowID != *workflowID {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "stage does not belong to workflow", nil)
	}
	return nil
}

func (s *Service) UpdateTaskStatus(ctx context.Context, session Session, taskID, status string) (store.Task, error) {
	if _, ok := allowedTaskStatuses[status]; !ok {
		return store.Task{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown status %q", status), nil)
	}
	updated, err := s.store.UpdateTaskStatus(ctx, taskID, status)
	if err != nil {
		return store.Task{}, err
	}
	if !updated {
		return store.Task{}, sql.ErrNoRows
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return store.Task{}, err
	}
	s.indexTask(task)

	participants := s.participantIDs(ctx, taskID)
	s.broadcast(participants, "task:status", map[string]any{
		"taskId": taskID,
		"status": status,
		"actor":  session.UserID,
	})
	for _, userID := range participants {
		if userID == session.UserID {
			continue
		}
		s.notify(ctx, userID, "task-status",
			fmt.Sprintf("Task %q moved to %s", task.Title, status),
			"Task status changed",
			fmt.Sprintf("%s moved %q to %s.", session.UserName, task.Title, status),
			"/tasks/"+taskID)
	}
	return task, nil
}

func (s *Service) MoveTaskToStage(ctx context.Context, taskID string, workflowID, stageID *string) (store.Task, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return store.Task{}, err
	}
	if err := s.validateStageRef(ctx, workflowID, stageID); err != nil {
		return store.Task{}, err
	}
	if err := s.store.MoveTaskToStage(ctx, taskID, workflowID, stageID); err != nil {
		return store.Task{}, err
	}
	return s.store.GetTask(ctx, taskID)
}

func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteTask(taskID)
	}
	return nil
}

func (s *Service) AddParticipant(ctx context.Context, session Session, taskID, userID string) error {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if err := s.store.AddParticipant(ctx, taskID, userID); err != nil {
		return err
	}

	s.broadcastTo(userID, "task:assigned", map[string]any{
		"taskId": taskID,
		"title":  task.Title,
		"actor":  session.UserID,
	})
	if userID != session.UserID {
		s.notify(ctx, userID, "task-assigned",
			fmt.Sprintf("You were added to task %q", task.Title),
			"New task assignment",
			fmt.Sprintf("%s added you to the task %q.", session.UserName, task.Title),
			"/tasks/"+taskID)
	}
	return nil
}

func (s *Service) RemoveParticipant(ctx context.Context, taskID, userID string) error {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return err
	}
	return s.store.RemoveParticipant(ctx, taskID, userID)
}

func (s *Service) CreateSubtask(ctx context.Context, taskID, title string) (store.Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return store.Subtask{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return store.Subtask{}, err
	}
	subtask := store.Subtask{
		ID:     util.NewID("sub"),
		TaskID: taskID,
		Title:  title,
	}
	if err := s.store.InsertSubtask(ctx, subtask); err != nil {
		return store.Subtask{}, err
	}
	return subtask, nil
}

func (s *Service) ToggleSubtask(ctx context.Context, taskID, subtaskID string) error {
	toggled, err := s.store.ToggleSubtask(ctx, taskID, subtaskID)
	if err != nil {
		return err
	}
	if !toggled {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Service) DeleteSubtask(ctx context.Context, taskID, subtaskID string) error {
	return s.store.DeleteSubtask(ctx, taskID, subtaskID)
}

func (s *Service) CreateStep(ctx context.Context, taskID, title string) (store.Step, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return store.Step{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return store.Step{}, err
	}
	step := store.Step{
		ID:     util.NewID("stp"),
		TaskID: taskID,
		Title:  title,
	}
	if err := s.store.InsertStep(ctx, step); err != nil {
		return store.Step{}, err
	}
	return step, nil
}

func (s *Service) ToggleStep(ctx context.Context, taskID, stepID string) error {
	toggled, err := s.store.ToggleStep(ctx, taskID, stepID)
	if err != nil {
		return err
	}
	if !toggled {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Service) ReorderSteps(ctx context.Context, taskID string, orderedIDs []string) ([]store.Step, error) {
	if len(orderedIDs) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "stepIds is required", nil)
	}
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	if err := s.store.ReorderSteps(ctx, taskID, orderedIDs); err != nil {
		return nil, err
	}
	return s.store.ListSteps(ctx, taskID)
}

func (s *Service) DeleteStep(ctx context.Context, taskID, stepID string) error {
	return s.store.DeleteStep(ctx, taskID, stepID)
}

func (s *Service) ListComments(ctx context.Context, taskID string) ([]store.Comment, error) {
	return s.store.ListComments(ctx, taskID)
}

func (s *Service) CreateComment(ctx context.Context, session Session, taskID, body string) (store.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return store.Comment{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is required", nil)
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return store.Comment{}, err
	}
	comment := store.Comment{
		ID:       util.NewID("cmt"),
		TaskID:   taskID,
		AuthorID: session.UserID,
		Body:     body,
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return store.Comment{}, err
	}
	comment.AuthorName = session.UserName

	participants := s.participantIDs(ctx, taskID)
	s.broadcast(participants, "task:comment", map[string]any{
		"taskId":  taskID,
		"comment": map[string]any{"id": comment.ID, "author": session.UserName, "body": body},
	})
	for _, userID := range participants {
		if userID == session.UserID {
			continue
		}
		s.notify(ctx, userID, "task-comment",
			fmt.Sprintf("New comment on %q", task.Title),
			"New comment",
			fmt.Sprintf("%s commented on %q.", session.UserName, task.Title),
			"/tasks/"+taskID)
	}
	return comment, nil
}

func (s *Service) participantIDs(ctx context.Context, taskID string) []string {
	participants, err := s.store.ListParticipants(ctx, taskID)
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	return ids
}

func (s *Service) indexTask(task store.Task) {
	if s.search == nil {
		return
	}
	s.search.IndexTask(search.TaskRecord{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
	})
}
