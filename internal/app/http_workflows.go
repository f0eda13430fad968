package app

import "net/http"

func (s *HTTPServer) handleWorkflows(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	// /api/workflows
	if len(parts) == 2 {
		switch r.Method {
		case http.MethodGet:
			workflows, err := s.service.ListWorkflows(r.Context())
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			views := make([]map[string]any, 0, len(workflows))
			for _, wf := range workflows {
				views = append(views, workflowView(wf))
			}
			writeJSON(w, http.StatusOK, map[string]any{"workflows": views})
		case http.MethodPost:
			var input WorkflowInput
			if err := decodeBody(r, &input); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			workflow, err := s.service.CreateWorkflow(r.Context(), session, input)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, workflowView(workflow))
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	workflowID := parts[2]

	// /api/workflows/{id}
	if len(parts) == 3 {
		switch r.Method {
		case http.MethodGet:
			detail, err := s.service.GetWorkflowDetail(r.Context(), workflowID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			view := workflowView(detail.Workflow)
			view["stages"] = stageViews(detail.Stages)
			writeJSON(w, http.StatusOK, view)
		case http.MethodPut:
			var input WorkflowInput
			if err := decodeBody(r, &input); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			workflow, err := s.service.UpdateWorkflow(r.Context(), workflowID, input)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, workflowView(workflow))
		case http.MethodDelete:
			if err := s.service.DeleteWorkflow(r.Context(), workflowID); err != nil {
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

	// /api/workflows/{id}/stages[...]
	if parts[3] == "stages" {
		if len(parts) == 4 && r.Method == http.MethodPost {
			var input StageInput
			if err := decodeBody(r, &input); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			stage, err := s.service.CreateStage(r.Context(), workflowID, input)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, stageView(stage))
			return
		}
		if len(parts) == 5 && r.Method == http.MethodPut {
			var input StageInput
			if err := decodeBody(r, &input); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			stage, err := s.service.UpdateStage(r.Context(), workflowID, parts[4], input)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, stageView(stage))
			return
		}
		if len(parts) == 5 && r.Method == http.MethodDelete {
			if err := s.service.DeleteStage(r.Context(), workflowID, parts[4]); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}
