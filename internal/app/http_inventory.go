package app

import (
	"net/http"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
)

func (s *HTTPServer) handleInventory(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch parts[1] {
	case "stock":
		// /api/stock
		if len(parts) == 2 {
			switch r.Method {
			case http.MethodGet:
				items, err := s.service.ListStockItems(r.Context(), session)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				views := make([]map[string]any, 0, len(items))
				for _, item := range items {
					views = append(views, stockItemView(item))
				}
				writeJSON(w, http.StatusOK, map[string]any{"items": views})
				return
			case http.MethodPost:
				var input StockItemInput
				if err := decodeBody(r, &input); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				item, err := s.service.CreateStockItem(r.Context(), session, input)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusCreated, stockItemView(item))
				return
			}
		}
		// /api/stock/{id}
		if len(parts) == 3 {
			switch r.Method {
			case http.MethodGet:
				item, err := s.service.GetStockItem(r.Context(), session, parts[2])
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, stockItemView(item))
				return
			case http.MethodPut:
				var input StockItemInput
				if err := decodeBody(r, &input); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				item, err := s.service.UpdateStockItem(r.Context(), session, parts[2], input)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, stockItemView(item))
				return
			case http.MethodDelete:
				if err := s.service.DeleteStockItem(r.Context(), session, parts[2]); err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
				return
			}
		}
		// /api/stock/{id}/adjust
		if len(parts) == 4 && parts[3] == "adjust" && r.Method == http.MethodPost {
			var body struct {
				Delta  int    `json:"delta"`
				Reason string `json:"reason"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			item, err := s.service.AdjustStock(r.Context(), session, parts[2], body.Delta, body.Reason)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, stockItemView(item))
			return
		}
		// /api/stock/{id}/movements
		if len(parts) == 4 && parts[3] == "movements" && r.Method == http.MethodGet {
			limit := queryInt(r, "limit", 50)
			movements, err := s.service.ListStockMovements(r.Context(), session, parts[2], limit)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			views := make([]map[string]any, 0, len(movements))
			for _, m := range movements {
				views = append(views, stockMovementView(m))
			}
			writeJSON(w, http.StatusOK, map[string]any{"movements": views})
			return
		}

	case "permissions":
		// /api/permissions/{feature}
		if len(parts) == 3 && r.Method == http.MethodGet {
			perms, err := s.service.ListPermissions(r.Context(), session, parts[2])
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			views := make([]map[string]any, 0, len(perms))
			for _, p := range perms {
				views = append(views, permissionView(p))
			}
			writeJSON(w, http.StatusOK, map[string]any{"permissions": views})
			return
		}
		// /api/permissions/{feature}/{userId}
		if len(parts) == 4 && r.Method == http.MethodPut {
			var body struct {
				CanView   bool `json:"canView"`
				CanManage bool `json:"canManage"`
				CanAdjust bool `json:"canAdjust"`
				CanDelete bool `json:"canDelete"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			perm := store.Permission{
				UserID:    parts[3],
				Feature:   parts[2],
				CanView:   body.CanView,
				CanManage: body.CanManage,
				CanAdjust: body.CanAdjust,
				CanDelete: body.CanDelete,
			}
			if err := s.service.SavePermission(r.Context(), session, perm); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, permissionView(perm))
			return
		}
		if len(parts) == 4 && r.Method == http.MethodDelete {
			if err := s.service.DeletePermission(r.Context(), session, parts[3], parts[2]); err != nil {
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
