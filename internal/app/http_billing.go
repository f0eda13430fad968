package app

import (
	"fmt"
	"net/http"
)

func (s *HTTPServer) handleBilling(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch parts[1] {
	case "proformas":
		// /api/proformas
		if len(parts) == 2 {
			switch r.Method {
			case http.MethodGet:
				proformas, err := s.service.ListProformas(r.Context(), session)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				views := make([]map[string]any, 0, len(proformas))
				for _, p := range proformas {
					views = append(views, proformaView(p))
				}
				writeJSON(w, http.StatusOK, map[string]any{"proformas": views})
				return
			case http.MethodPost:
				var input ProformaInput
				if err := decodeBody(r, &input); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				proforma, err := s.service.CreateProforma(r.Context(), session, input)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusCreated, proformaView(proforma))
				return
			}
		}
		// /api/proformas/{id}
		if len(parts) == 3 {
			switch r.Method {
			case http.MethodGet:
				proforma, err := s.service.GetProforma(r.Context(), session, parts[2])
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, proformaView(proforma))
				return
			case http.MethodPut:
				var input ProformaInput
				if err := decodeBody(r, &input); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				proforma, err := s.service.UpdateProforma(r.Context(), session, parts[2], input)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, proformaView(proforma))
				return
			case http.MethodDelete:
				if err := s.service.DeleteProforma(r.Context(), session, parts[2]); err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
				return
			}
		}
		// /api/proformas/{id}/pdf
		if len(parts) == 4 && parts[3] == "pdf" && r.Method == http.MethodGet {
			result, err := s.service.ExportProformaPDF(r.Context(), session, parts[2])
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			w.Header().Set("Content-Type", result.MimeType)
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
			w.WriteHeader(http.StatusOK)
			w.Write(result.Data)
			return
		}

	case "expenses":
		// /api/expenses
		if len(parts) == 2 {
			switch r.Method {
			case http.MethodGet:
				limit := queryInt(r, "limit", 100)
				expenses, err := s.service.ListExpenses(r.Context(), session, limit)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				views := make([]map[string]any, 0, len(expenses))
				for _, e := range expenses {
					views = append(views, expenseView(e))
				}
				writeJSON(w, http.StatusOK, map[string]any{"expenses": views})
				return
			case http.MethodPost:
				var input ExpenseInput
				if err := decodeBody(r, &input); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				expense, err := s.service.CreateExpense(r.Context(), session, input)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusCreated, expenseView(expense))
				return
			}
		}
		// /api/expenses/summary?month=YYYY-MM
		if len(parts) == 3 && parts[2] == "summary" && r.Method == http.MethodGet {
			month, ok := monthStart(r.URL.Query().Get("month"))
			if !ok {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid month, expected YYYY-MM", nil)
				return
			}
			totals, err := s.service.MonthlyExpenseSummary(r.Context(), session, month)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			views := make([]map[string]any, 0, len(totals))
			for _, t := range totals {
				views = append(views, map[string]any{
					"category":   t.Category,
					"totalCents": t.TotalCents,
				})
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"month":      month.Format("2006-01"),
				"categories": views,
			})
			return
		}
		// /api/expenses/{id}
		if len(parts) == 3 {
			switch r.Method {
			case http.MethodGet:
				expense, err := s.service.GetExpense(r.Context(), session, parts[2])
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, expenseView(expense))
				return
			case http.MethodPut:
				var input ExpenseInput
				if err := decodeBody(r, &input); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				expense, err := s.service.UpdateExpense(r.Context(), session, parts[2], input)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, expenseView(expense))
				return
			case http.MethodDelete:
				if err := s.service.DeleteExpense(r.Context(), session, parts[2]); err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
				return
			}
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}
