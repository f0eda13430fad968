package app

import (
	"net/http"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/search"
)

func (s *HTTPServer) handleNotifications(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	// /api/notifications
	if len(parts) == 2 && r.Method == http.MethodGet {
		limit := queryInt(r, "limit", 50)
		notifications, err := s.service.ListNotifications(r.Context(), session, limit)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		views := make([]map[string]any, 0, len(notifications))
		for _, n := range notifications {
			views = append(views, notificationView(n))
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": views})
		return
	}
	// /api/notifications/unread-count
	if len(parts) == 3 && parts[2] == "unread-count" && r.Method == http.MethodGet {
		count, err := s.service.UnreadNotificationCount(r.Context(), session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": count})
		return
	}
	// /api/notifications/read-all
	if len(parts) == 3 && parts[2] == "read-all" && r.Method == http.MethodPost {
		if err := s.service.MarkAllNotificationsRead(r.Context(), session); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	// /api/notifications/{id}/read
	if len(parts) == 4 && parts[3] == "read" && r.Method == http.MethodPost {
		if err := s.service.MarkNotificationRead(r.Context(), session, parts[2]); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request, session Session) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	q := search.Query{
		Text:       r.URL.Query().Get("q"),
		FilterType: search.ResultType(r.URL.Query().Get("type")),
		Limit:      queryInt(r, "limit", 20),
		Offset:     queryInt(r, "offset", 0),
	}
	writeJSON(w, http.StatusOK, s.service.Search(r.Context(), q))
}
