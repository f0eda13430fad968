package app

import (
	"net/http"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
)

func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case parts[1] == "users" && len(parts) == 2 && r.Method == http.MethodGet:
		users, err := s.service.ListUsers(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": userViews(users)})

	case parts[1] == "users" && len(parts) == 3 && r.Method == http.MethodGet:
		user, err := s.service.GetUser(r.Context(), parts[2])
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, userView(user))

	case parts[1] == "profile" && len(parts) == 2 && r.Method == http.MethodPut:
		var body struct {
			Username    string `json:"username"`
			AvatarColor string `json:"avatarColor"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.UpdateProfile(r.Context(), session, body.Username, body.AvatarColor); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		user, err := s.service.GetUser(r.Context(), session.UserID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, userView(user))

	case parts[1] == "preferences" && len(parts) == 2 && r.Method == http.MethodGet:
		prefs, err := s.service.GetPreferences(r.Context(), session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, preferencesView(prefs))

	case parts[1] == "preferences" && len(parts) == 2 && r.Method == http.MethodPut:
		var body struct {
			TaskAssigned  bool `json:"taskAssigned"`
			TaskComment   bool `json:"taskComment"`
			TaskStatus    bool `json:"taskStatus"`
			DirectMessage bool `json:"directMessage"`
			GroupMessage  bool `json:"groupMessage"`
			StockAlert    bool `json:"stockAlert"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		prefs := store.NotificationPreferences{
			TaskAssigned:  body.TaskAssigned,
			TaskComment:   body.TaskComment,
			TaskStatus:    body.TaskStatus,
			DirectMessage: body.DirectMessage,
			GroupMessage:  body.GroupMessage,
			StockAlert:    body.StockAlert,
		}
		if err := s.service.SavePreferences(r.Context(), session, prefs); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		prefs.UserID = session.UserID
		writeJSON(w, http.StatusOK, preferencesView(prefs))

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}
