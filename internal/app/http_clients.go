package app

import (
	"fmt"
	"io"
	"log"
	"net/http"
)

func (s *HTTPServer) handleClients(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch parts[1] {
	case "clients":
		// /api/clients
		if len(parts) == 2 {
			switch r.Method {
			case http.MethodGet:
				clients, err := s.service.ListClients(r.Context())
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				views := make([]map[string]any, 0, len(clients))
				for _, c := range clients {
					views = append(views, clientView(c))
				}
				writeJSON(w, http.StatusOK, map[string]any{"clients": views})
				return
			case http.MethodPost:
				var input ClientInput
				if err := decodeBody(r, &input); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				client, err := s.service.CreateClient(r.Context(), input)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusCreated, clientView(client))
				return
			}
		}
		// /api/clients/{id}
		if len(parts) == 3 {
			switch r.Method {
			case http.MethodGet:
				client, services, err := s.service.GetClient(r.Context(), parts[2])
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				view := clientView(client)
				serviceViews := make([]map[string]any, 0, len(services))
				for _, svc := range services {
					serviceViews = append(serviceViews, clientServiceView(svc))
				}
				view["services"] = serviceViews
				writeJSON(w, http.StatusOK, view)
				return
			case http.MethodPut:
				var input ClientInput
				if err := decodeBody(r, &input); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				client, err := s.service.UpdateClient(r.Context(), parts[2], input)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, clientView(client))
				return
			case http.MethodDelete:
				if err := s.service.DeleteClient(r.Context(), session, parts[2]); err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
				return
			}
		}
		// /api/clients/{id}/services
		if len(parts) == 4 && parts[3] == "services" && r.Method == http.MethodPost {
			var input ClientServiceInput
			if err := decodeBody(r, &input); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			service, err := s.service.CreateClientService(r.Context(), parts[2], input)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, clientServiceView(service))
			return
		}

	case "services":
		// /api/services/{id}
		if len(parts) == 3 {
			switch r.Method {
			case http.MethodPut:
				var input ClientServiceInput
				if err := decodeBody(r, &input); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				service, err := s.service.UpdateClientService(r.Context(), parts[2], input)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, clientServiceView(service))
				return
			case http.MethodDelete:
				if err := s.service.DeleteClientService(r.Context(), session, parts[2]); err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
				return
			}
		}
		// /api/services/{id}/contract
		if len(parts) == 4 && parts[3] == "contract" {
			switch r.Method {
			case http.MethodPost:
				s.handleContractUpload(w, r, parts[2])
				return
			case http.MethodGet:
				s.handleContractDownload(w, r, parts[2])
				return
			}
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleContractUpload(w http.ResponseWriter, r *http.Request, serviceID string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContractSize)
	if err := r.ParseMultipartForm(maxContractSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Contract file exceeds the size limit", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Missing file field", nil)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	service, err := s.service.UploadContract(r.Context(), serviceID, header.Filename, contentType, file, header.Size)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, clientServiceView(service))
}

func (s *HTTPServer) handleContractDownload(w http.ResponseWriter, r *http.Request, serviceID string) {
	reader, fileName, contentType, err := s.service.DownloadContract(r.Context(), serviceID)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("stream contract %s: %v", serviceID, err)
	}
}
