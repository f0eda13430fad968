package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/auth"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
)

func authedRequest(t *testing.T, svc *Service, method, path string, body []byte, user store.User) *http.Request {
	t.Helper()
	name := user.Username
	if name == "" {
		name = "test-user"
	}
	token, err := auth.IssueToken([]byte(svc.cfg.TokenSecret), auth.Claims{
		Sub:   user.ID,
		Name:  name,
		Admin: user.IsAdmin,
		JTI:   "jti_test",
		Exp:   time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v body=%s", err, rr.Body.String())
	}
	return payload
}

func TestHealthEndpoint(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}), nil, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if payload["ok"] != true {
		t.Errorf("expected ok=true, got %v", payload["ok"])
	}
}

func TestReadyEndpointReportsDatabaseFailure(t *testing.T) {
	fs := &fakeStore{
		pingFn: func(context.Context) error { return context.DeadlineExceeded },
	}
	server := NewHTTPServer(newTestService(fs), nil, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if payload["status"] != "not_ready" {
		t.Errorf("expected status=not_ready, got %v", payload["status"])
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}), nil, "*")

	paths := []string{"/api/tasks", "/api/stock", "/api/clients", "/api/notifications"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status 401, got %d", path, rr.Code)
		}
		payload := decodeResponse(t, rr)
		if payload["code"] != "UNAUTHORIZED" {
			t.Errorf("%s: expected code UNAUTHORIZED, got %v", path, payload["code"])
		}
	}
}

func TestCreateTaskContract(t *testing.T) {
	var inserted store.Task
	fs := &fakeStore{
		insertTaskFn: func(_ context.Context, task store.Task) error {
			inserted = task
			return nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	body := []byte(`{"title":"Ship release","description":"cut and tag","priority":"high"}`)
	req := authedRequest(t, svc, http.MethodPost, "/api/tasks", body, store.User{ID: "usr_1", Username: "avery"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["title"] != "Ship release" {
		t.Errorf("expected title in response, got %v", payload["title"])
	}
	if payload["status"] != "todo" {
		t.Errorf("expected default status todo, got %v", payload["status"])
	}
	if inserted.Priority != "high" {
		t.Errorf("expected priority high, got %q", inserted.Priority)
	}
	if inserted.CreatedBy != "usr_1" {
		t.Errorf("expected createdBy usr_1, got %q", inserted.CreatedBy)
	}
}

func TestCreateTaskRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, nil, "*")

	body := []byte(`{"title":"Bad","status":"archived"}`)
	req := authedRequest(t, svc, http.MethodPost, "/api/tasks", body, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["code"] != "VALIDATION_ERROR" {
		t.Errorf("expected code VALIDATION_ERROR, got %v", payload["code"])
	}
}

func TestUpdateTaskStatusUnknownTaskIs404(t *testing.T) {
	fs := &fakeStore{
		updateTaskStatusFn: func(context.Context, string, string) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	body := []byte(`{"status":"done"}`)
	req := authedRequest(t, svc, http.MethodPost, "/api/tasks/tsk_missing/status", body, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUpdateTaskPersistsStatusAndStage(t *testing.T) {
	var saved store.Task
	fs := &fakeStore{
		getTaskFn: func(_ context.Context, taskID string) (store.Task, error) {
			return store.Task{ID: taskID, Title: "Ship release", Status: "todo"}, nil
		},
		getStageFn: func(context.Context, string) (store.Stage, error) {
			return store.Stage{ID: "stg_1", WorkflowID: "wfl_1", Name: "Review"}, nil
		},
		updateTaskFn: func(_ context.Context, task store.Task) error {
			saved = task
			return nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	body := []byte(`{"title":"Ship release","status":"in-progress","workflowId":"wfl_1","stageId":"stg_1"}`)
	req := authedRequest(t, svc, http.MethodPut, "/api/tasks/tsk_1", body, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if saved.Status != "in-progress" {
		t.Errorf("expected stored status in-progress, got %q", saved.Status)
	}
	if saved.WorkflowID == nil || *saved.WorkflowID != "wfl_1" {
		t.Errorf("expected stored workflowId wfl_1, got %v", saved.WorkflowID)
	}
	if saved.StageID == nil || *saved.StageID != "stg_1" {
		t.Errorf("expected stored stageId stg_1, got %v", saved.StageID)
	}
}

func TestMoveTaskToStageRejectsForeignStage(t *testing.T) {
	moved := false
	fs := &fakeStore{
		getTaskFn: func(_ context.Context, taskID string) (store.Task, error) {
			return store.Task{ID: taskID, Title: "Ship release"}, nil
		},
		getStageFn: func(context.Context, string) (store.Stage, error) {
			return store.Stage{ID: "stg_9", WorkflowID: "wfl_other", Name: "Done"}, nil
		},
		moveTaskToStageFn: func(context.Context, string, *string, *string) error {
			moved = true
			return nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	body := []byte(`{"workflowId":"wfl_1","stageId":"stg_9"}`)
	req := authedRequest(t, svc, http.MethodPost, "/api/tasks/tsk_1/stage", body, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["code"] != "VALIDATION_ERROR" {
		t.Errorf("expected code VALIDATION_ERROR, got %v", payload["code"])
	}
	if moved {
		t.Error("expected task to stay in place")
	}
}

func TestMoveTaskToStageRequiresWorkflow(t *testing.T) {
	fs := &fakeStore{
		getTaskFn: func(_ context.Context, taskID string) (store.Task, error) {
			return store.Task{ID: taskID, Title: "Ship release"}, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	body := []byte(`{"stageId":"stg_1"}`)
	req := authedRequest(t, svc, http.MethodPost, "/api/tasks/tsk_1/stage", body, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["code"] != "VALIDATION_ERROR" {
		t.Errorf("expected code VALIDATION_ERROR, got %v", payload["code"])
	}
}

func TestStockListDeniedWithoutPermission(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, nil, "*")

	req := authedRequest(t, svc, http.MethodGet, "/api/stock", nil, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["code"] != "FORBIDDEN" {
		t.Errorf("expected code FORBIDDEN, got %v", payload["code"])
	}
}

func TestStockListAllowedForAdmin(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, Username: "root", IsAdmin: true}, nil
		},
		listStockItemsFn: func(context.Context) ([]store.StockItem, error) {
			return []store.StockItem{{ID: "stk_1", Name: "Cable", Quantity: 12}}, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	req := authedRequest(t, svc, http.MethodGet, "/api/stock", nil, store.User{ID: "usr_1", IsAdmin: true})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	items, ok := payload["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one item, got %v", payload["items"])
	}
}

func TestAdjustStockInsufficientQuantity(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, IsAdmin: true}, nil
		},
		getStockItemFn: func(_ context.Context, itemID string) (store.StockItem, error) {
			return store.StockItem{ID: itemID, Name: "Cable", Quantity: 2}, nil
		},
		adjustStockQuantityFn: func(context.Context, store.StockMovement) (int, error) {
			return 0, store.ErrInsufficientStock
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	body := []byte(`{"delta":-5,"reason":"shipment"}`)
	req := authedRequest(t, svc, http.MethodPost, "/api/stock/stk_1/adjust", body, store.User{ID: "usr_1", IsAdmin: true})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["code"] != "INSUFFICIENT_STOCK" {
		t.Errorf("expected code INSUFFICIENT_STOCK, got %v", payload["code"])
	}
}

func TestPermissionEndpointsAdminOnly(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, nil, "*")

	body := []byte(`{"canView":true}`)
	req := authedRequest(t, svc, http.MethodPut, "/api/permissions/stock/usr_2", body, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStageDeleteBlockedWhenNotEmpty(t *testing.T) {
	fs := &fakeStore{
		getStageFn: func(_ context.Context, stageID string) (store.Stage, error) {
			return store.Stage{ID: stageID, WorkflowID: "wfl_1", Name: "Review"}, nil
		},
		stageTaskCountFn: func(context.Context, string) (int, error) { return 3, nil },
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	req := authedRequest(t, svc, http.MethodDelete, "/api/workflows/wfl_1/stages/stg_1", nil, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["code"] != "STAGE_NOT_EMPTY" {
		t.Errorf("expected code STAGE_NOT_EMPTY, got %v", payload["code"])
	}
	details, _ := payload["details"].(map[string]any)
	if details["taskCount"] != float64(3) {
		t.Errorf("expected taskCount 3 in details, got %v", details["taskCount"])
	}
}

func TestSendDirectMessageRejectsSelf(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, nil, "*")

	body := []byte(`{"body":"hi me"}`)
	req := authedRequest(t, svc, http.MethodPost, "/api/messages/usr_1", body, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGroupMessagesMemberGated(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, nil, "*")

	req := authedRequest(t, svc, http.MethodGet, "/api/channels/chn_1/messages", nil, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateProformaComputesTotal(t *testing.T) {
	var inserted store.Proforma
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, IsAdmin: true}, nil
		},
		getClientFn: func(_ context.Context, clientID string) (store.Client, error) {
			return store.Client{ID: clientID, Name: "Acme"}, nil
		},
		insertProformaFn: func(_ context.Context, p store.Proforma) error {
			inserted = p
			return nil
		},
		getProformaFn: func(_ context.Context, _ string) (store.Proforma, error) {
			return inserted, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	body := []byte(`{"clientId":"cli_1","items":[{"description":"Setup","quantity":2,"unitPriceCents":5000},{"description":"Support","quantity":1,"unitPriceCents":2500}]}`)
	req := authedRequest(t, svc, http.MethodPost, "/api/proformas", body, store.User{ID: "usr_1", IsAdmin: true})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if inserted.TotalCents != 12500 {
		t.Errorf("expected total 12500, got %d", inserted.TotalCents)
	}
	if inserted.Number != "PF-0001" {
		t.Errorf("expected number PF-0001, got %q", inserted.Number)
	}
	if inserted.Status != "draft" {
		t.Errorf("expected default status draft, got %q", inserted.Status)
	}
}

func TestExpenseSummaryRejectsBadMonth(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, IsAdmin: true}, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	req := authedRequest(t, svc, http.MethodGet, "/api/expenses/summary?month=August", nil, store.User{ID: "usr_1", IsAdmin: true})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetExpenseReturnsRecord(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, IsAdmin: true}, nil
		},
		getExpenseFn: func(_ context.Context, expenseID string) (store.Expense, error) {
			return store.Expense{
				ID:          expenseID,
				Description: "Office chairs",
				AmountCents: 45000,
				Category:    "furniture",
				IncurredOn:  time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
				RecordedBy:  "usr_1",
			}, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	req := authedRequest(t, svc, http.MethodGet, "/api/expenses/exp_1", nil, store.User{ID: "usr_1", IsAdmin: true})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["id"] != "exp_1" {
		t.Errorf("expected id exp_1, got %v", payload["id"])
	}
	if payload["amountCents"] != float64(45000) {
		t.Errorf("expected amountCents 45000, got %v", payload["amountCents"])
	}
	if payload["incurredOn"] != "2026-03-12" {
		t.Errorf("expected incurredOn 2026-03-12, got %v", payload["incurredOn"])
	}
}

func TestGetExpenseDeniedWithoutPermission(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, nil, "*")

	req := authedRequest(t, svc, http.MethodGet, "/api/expenses/exp_1", nil, store.User{ID: "usr_1"})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestContractUploadUnavailableWithoutStorage(t *testing.T) {
	fs := &fakeStore{
		getClientServiceFn: func(_ context.Context, serviceID string) (store.ClientService, error) {
			return store.ClientService{ID: serviceID, ClientID: "cli_1"}, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "contract.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("%PDF-1.4"))
	mw.Close()

	req := authedRequest(t, svc, http.MethodPost, "/api/services/svc_1/contract", buf.Bytes(), store.User{ID: "usr_1"})
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["code"] != "STORAGE_UNAVAILABLE" {
		t.Errorf("expected code STORAGE_UNAVAILABLE, got %v", payload["code"])
	}
}

func TestSessionEndpointReflectsClaims(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, Username: "avery", IsAdmin: true}, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, nil, "*")

	req := authedRequest(t, svc, http.MethodGet, "/api/session", nil, store.User{ID: "usr_1", Username: "avery", IsAdmin: true})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["authenticated"] != true {
		t.Errorf("expected authenticated=true, got %v", payload["authenticated"])
	}
	if payload["userName"] != "avery" {
		t.Errorf("expected userName avery, got %v", payload["userName"])
	}
	if payload["isAdmin"] != true {
		t.Errorf("expected isAdmin=true, got %v", payload["isAdmin"])
	}
}
