package app

import "net/http"

func (s *HTTPServer) handleMessaging(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch parts[1] {
	case "conversations":
		if len(parts) == 2 && r.Method == http.MethodGet {
			conversations, err := s.service.ListConversations(r.Context(), session)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			views := make([]map[string]any, 0, len(conversations))
			for _, c := range conversations {
				views = append(views, conversationView(c))
			}
			writeJSON(w, http.StatusOK, map[string]any{"conversations": views})
			return
		}

	case "messages":
		// /api/messages/{partnerId}
		if len(parts) == 3 {
			switch r.Method {
			case http.MethodGet:
				limit := queryInt(r, "limit", 50)
				messages, err := s.service.ListDirectMessages(r.Context(), session, parts[2], limit)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				views := make([]map[string]any, 0, len(messages))
				for _, m := range messages {
					views = append(views, directMessageView(m))
				}
				writeJSON(w, http.StatusOK, map[string]any{"messages": views})
				return
			case http.MethodPost:
				var body struct {
					Body string `json:"body"`
				}
				if err := decodeBody(r, &body); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				message, err := s.service.SendDirectMessage(r.Context(), session, parts[2], body.Body)
				if err != nil {
					status, code, msg, details := mapError(err)
					writeError(w, status, code, msg, details)
					return
				}
				writeJSON(w, http.StatusCreated, directMessageView(message))
				return
			}
		}
		// /api/messages/{partnerId}/read
		if len(parts) == 4 && parts[3] == "read" && r.Method == http.MethodPost {
			if err := s.service.MarkDirectMessagesRead(r.Context(), session, parts[2]); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

	case "channels":
		// /api/channels
		if len(parts) == 2 {
			switch r.Method {
			case http.MethodGet:
				channels, err := s.service.ListMyChannels(r.Context(), session)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				views := make([]map[string]any, 0, len(channels))
				for _, c := range channels {
					views = append(views, channelView(c))
				}
				writeJSON(w, http.StatusOK, map[string]any{"channels": views})
				return
			case http.MethodPost:
				var body struct {
					Name        string `json:"name"`
					Description string `json:"description"`
				}
				if err := decodeBody(r, &body); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				channel, err := s.service.CreateChannel(r.Context(), session, body.Name, body.Description)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusCreated, channelView(channel))
				return
			}
		}
		// /api/channels/{id}
		if len(parts) == 3 && r.Method == http.MethodGet {
			channel, members, err := s.service.GetChannel(r.Context(), session, parts[2])
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			view := channelView(channel)
			memberViews := make([]map[string]any, 0, len(members))
			for _, m := range members {
				memberViews = append(memberViews, channelMemberView(m))
			}
			view["members"] = memberViews
			writeJSON(w, http.StatusOK, view)
			return
		}
		if len(parts) >= 4 {
			channelID := parts[2]
			switch parts[3] {
			case "members":
				if len(parts) == 4 && r.Method == http.MethodPost {
					var body struct {
						UserID string `json:"userId"`
					}
					if err := decodeBody(r, &body); err != nil {
						writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
						return
					}
					if err := s.service.AddChannelMember(r.Context(), session, channelID, body.UserID); err != nil {
						status, code, message, details := mapError(err)
						writeError(w, status, code, message, details)
						return
					}
					writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
					return
				}
				if len(parts) == 5 && r.Method == http.MethodDelete {
					if err := s.service.RemoveChannelMember(r.Context(), session, channelID, parts[4]); err != nil {
						status, code, message, details := mapError(err)
						writeError(w, status, code, message, details)
						return
					}
					writeJSON(w, http.StatusOK, map[string]any{"ok": true})
					return
				}
			case "messages":
				if len(parts) == 4 && r.Method == http.MethodGet {
					limit := queryInt(r, "limit", 50)
					messages, err := s.service.ListGroupMessages(r.Context(), session, channelID, limit)
					if err != nil {
						status, code, message, details := mapError(err)
						writeError(w, status, code, message, details)
						return
					}
					views := make([]map[string]any, 0, len(messages))
					for _, m := range messages {
						views = append(views, groupMessageView(m))
					}
					writeJSON(w, http.StatusOK, map[string]any{"messages": views})
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
					message, err := s.service.PostGroupMessage(r.Context(), session, channelID, body.Body)
					if err != nil {
						status, code, msg, details := mapError(err)
						writeError(w, status, code, msg, details)
						return
					}
					writeJSON(w, http.StatusCreated, groupMessageView(message))
					return
				}
			}
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}
