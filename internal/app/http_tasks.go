package app

import (
	"net/http"
)

func (s *HTTPServer) handleTasks(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	// /api/tasks
	if len(parts) == 2 {
		switch r.Method {
		case http.MethodGet:
			tasks, err := s.service.ListTasks(r.Context())
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"tasks": taskViews(tasks)})
		case http.MethodPost:
			var input TaskInput
			if err := decodeBody(r, &input); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			task, err := s.service.CreateTask(r.Context(), session, input)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, taskView(task))
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	taskID := parts[2]

	// /api/tasks/{id}
	if len(parts) == 3 {
		switch r.Method {
		case http.MethodGet:
			detail, err := s.service.GetTaskDetail(r.Context(), taskID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, taskDetailView(detail))
		case http.MethodPut:
			var input TaskInput
			if err := decodeBody(r, &input); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			task, err := s.service.UpdateTask(r.Context(), taskID, input)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, taskView(task))
		case http.MethodDelete:
			if err := s.service.DeleteTask(r.Context(), taskID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	// /api/tasks/{id}/...
	switch parts[3] {
	case "status":
		if len(parts) == 4 && r.Method == http.MethodPost {
			var body struct {
				Status string `json:"status"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			task, err := s.service.UpdateTaskStatus(r.Context(), session, taskID, body.Status)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, taskView(task))
			return
		}

	case "stage":
		if len(parts) == 4 && r.Method == http.MethodPost {
			var body struct {
				WorkflowID *string `json:"workflowId"`
				StageID    *string `json:"stageId"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			task, err := s.service.MoveTaskToStage(r.Context(), taskID, body.WorkflowID, body.StageID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, taskView(task))
			return
		}

	case "participants":
		if len(parts) == 4 && r.Method == http.MethodPost {
			var body struct {
				UserID string `json:"userId"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.AddParticipant(r.Context(), session, taskID, body.UserID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
			return
		}
		if len(parts) == 5 && r.Method == http.MethodDelete {
			if err := s.service.RemoveParticipant(r.Context(), taskID, parts[4]); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

	case "subtasks":
		if len(parts) == 4 && r.Method == http.MethodPost {
			var body struct {
				Title string `json:"title"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			subtask, err := s.service.CreateSubtask(r.Context(), taskID, body.Title)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, subtaskView(subtask))
			return
		}
		if len(parts) == 6 && parts[5] == "toggle" && r.Method == http.MethodPost {
			if err := s.service.ToggleSubtask(r.Context(), taskID, parts[4]); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
		if len(parts) == 5 && r.Method == http.MethodDelete {
			if err := s.service.DeleteSubtask(r.Context(), taskID, parts[4]); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

	case "steps":
		if len(parts) == 4 && r.Method == http.MethodPost {
			var body struct {
				Title string `json:"title"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			step, err := s.service.CreateStep(r.Context(), taskID, body.Title)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, stepView(step))
			return
		}
		if len(parts) == 5 && parts[4] == "order" && r.Method == http.MethodPut {
			var body struct {
				StepIDs []string `json:"stepIds"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			steps, err := s.service.ReorderSteps(r.Context(), taskID, body.StepIDs)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"steps": stepViews(steps)})
			return
		}
		if len(parts) == 6 && parts[5] == "toggle" && r.Method == http.MethodPost {
			if err := s.service.ToggleStep(r.Context(), taskID, parts[4]); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
		if len(parts) == 5 && r.Method == http.MethodDelete {
			if err := s.service.DeleteStep(r.Context(), taskID, parts[4]); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

	case "comments":
		if len(parts) == 4 && r.Method == http.MethodGet {
			comments, err := s.service.ListComments(r.Context(), taskID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"comments": commentViews(comments)})
			return
		}
		if len(parts) == 4 && r.Method == http.MethodPost {
			var body struct {
				Body string `json:"body"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			comment, err := s.service.CreateComment(r.Context(), session, taskID, body.Body)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, commentView(comment))
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}
