package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/authpw"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/config"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
)

type fakeStore struct {
	pingFn                    func(context.Context) error
	getUserByIDFn             func(context.Context, string) (store.User, error)
	getUserByEmailFn          func(context.Context, string) (store.User, error)
	createUserFn              func(context.Context, store.User) error
	listUsersFn               func(context.Context) ([]store.User, error)
	getPreferencesFn          func(context.Context, string) (store.NotificationPreferences, error)
	savePreferencesFn         func(context.Context, store.NotificationPreferences) error
	listTasksFn               func(context.Context) ([]store.Task, error)
	getTaskFn                 func(context.Context, string) (store.Task, error)
	insertTaskFn              func(context.Context, store.Task) error
	updateTaskFn              func(context.Context, store.Task) error
	updateTaskStatusFn        func(context.Context, string, string) (bool, error)
	moveTaskToStageFn         func(context.Context, string, *string, *string) error
	listParticipantsFn        func(context.Context, string) ([]store.User, error)
	getWorkflowFn             func(context.Context, string) (store.Workflow, error)
	getStageFn                func(context.Context, string) (store.Stage, error)
	stageTaskCountFn          func(context.Context, string) (int, error)
	insertDirectMessageFn     func(context.Context, store.DirectMessage) error
	getChannelFn              func(context.Context, string) (store.Channel, error)
	isChannelMemberFn         func(context.Context, string, string) (bool, error)
	isChannelAdminFn          func(context.Context, string, string) (bool, error)
	listStockItemsFn          func(context.Context) ([]store.StockItem, error)
	getStockItemFn            func(context.Context, string) (store.StockItem, error)
	insertStockItemFn         func(context.Context, store.StockItem) error
	adjustStockQuantityFn     func(context.Context, store.StockMovement) (int, error)
	getPermissionFn           func(context.Context, string, string) (store.Permission, error)
	listManagersFn            func(context.Context, string) ([]string, error)
	getClientFn               func(context.Context, string) (store.Client, error)
	getClientServiceFn        func(context.Context, string) (store.ClientService, error)
	nextProformaNumberFn      func(context.Context) (string, error)
	getProformaFn             func(context.Context, string) (store.Proforma, error)
	getExpenseFn              func(context.Context, string) (store.Expense, error)
	insertProformaFn          func(context.Context, store.Proforma) error
	insertEmailNotificationFn func(context.Context, store.EmailNotification) error
	markNotificationReadFn    func(context.Context, string, string) (bool, error)
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}
func (f *fakeStore) GetUserByID(ctx context.Context, id string) (store.User, error) {
	if f.getUserByIDFn != nil {
		return f.getUserByIDFn(ctx, id)
	}
	return store.User{ID: id, Username: "user-" + id}, nil
}
func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) CreateUser(ctx context.Context, user store.User) error {
	if f.createUserFn != nil {
		return f.createUserFn(ctx, user)
	}
	return nil
}
func (f *fakeStore) ListUsers(ctx context.Context) ([]store.User, error) {
	if f.listUsersFn != nil {
		return f.listUsersFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) UpdateUserProfile(context.Context, string, string, string) error { return nil }
func (f *fakeStore) UpdateUserVerificationToken(context.Context, string, string, time.Time) error {
	return nil
}
func (f *fakeStore) VerifyUserEmail(context.Context, string) error            { return nil }
func (f *fakeStore) UpdateUserPassword(context.Context, string, string) error { return nil }
func (f *fakeStore) CreatePasswordReset(context.Context, string, string, time.Time) error {
	return nil
}
func (f *fakeStore) GetPasswordReset(context.Context, string) (string, error) {
	return "", sql.ErrNoRows
}
func (f *fakeStore) MarkPasswordResetUsed(context.Context, string) error { return nil }
func (f *fakeStore) SaveRefreshSession(context.Context, string, string, time.Time) error {
	return nil
}
func (f *fakeStore) LookupRefreshSession(context.Context, string) (store.User, error) {
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) RevokeRefreshSession(context.Context, string) error         { return nil }
func (f *fakeStore) RevokeAccessToken(context.Context, string, time.Time) error { return nil }
func (f *fakeStore) IsAccessTokenRevoked(context.Context, string) (bool, error) {
	return false, nil
}
func (f *fakeStore) GetPreferences(ctx context.Context, userID string) (store.NotificationPreferences, error) {
	if f.getPreferencesFn != nil {
		return f.getPreferencesFn(ctx, userID)
	}
	return store.DefaultPreferences(userID), nil
}
func (f *fakeStore) SavePreferences(ctx context.Context, prefs store.NotificationPreferences) error {
	if f.savePreferencesFn != nil {
		return f.savePreferencesFn(ctx, prefs)
	}
	return nil
}

func (f *fakeStore) ListTasks(ctx context.Context) ([]store.Task, error) {
	if f.listTasksFn != nil {
		return f.listTasksFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) GetTask(ctx context.Context, taskID string) (store.Task, error) {
	if f.getTaskFn != nil {
		return f.getTaskFn(ctx, taskID)
	}
	return store.Task{}, sql.ErrNoRows
}
func (f *fakeStore) InsertTask(ctx context.Context, task store.Task) error {
	if f.insertTaskFn != nil {
		return f.insertTaskFn(ctx, task)
	}
	return nil
}
func (f *fakeStore) UpdateTask(ctx context.Context, task store.Task) error {
	if f.updateTaskFn != nil {
		return f.updateTaskFn(ctx, task)
	}
	return nil
}
func (f *fakeStore) UpdateTaskStatus(ctx context.Context, taskID, status string) (bool, error) {
	if f.updateTaskStatusFn != nil {
		return f.updateTaskStatusFn(ctx, taskID, status)
	}
	return true, nil
}
func (f *fakeStore) MoveTaskToStage(ctx context.Context, taskID string, workflowID, stageID *string) error {
	if f.moveTaskToStageFn != nil {
		return f.moveTaskToStageFn(ctx, taskID, workflowID, stageID)
	}
	return nil
}
func (f *fakeStore) DeleteTask(context.Context, string) error                { return nil }
func (f *fakeStore) AddParticipant(context.Context, string, string) error    { return nil }
func (f *fakeStore) RemoveParticipant(context.Context, string, string) error { return nil }
func (f *fakeStore) ListParticipants(ctx context.Context, taskID string) ([]store.User, error) {
	if f.listParticipantsFn != nil {
		return f.listParticipantsFn(ctx, taskID)
	}
	return nil, nil
}
func (f *fakeStore) InsertSubtask(context.Context, store.Subtask) error { return nil }
func (f *fakeStore) ListSubtasks(context.Context, string) ([]store.Subtask, error) {
	return nil, nil
}
func (f *fakeStore) ToggleSubtask(context.Context, string, string) (bool, error) { return true, nil }
func (f *fakeStore) DeleteSubtask(context.Context, string, string) error         { return nil }
func (f *fakeStore) InsertStep(context.Context, store.Step) error                { return nil }
func (f *fakeStore) ListSteps(context.Context, string) ([]store.Step, error)     { return nil, nil }
func (f *fakeStore) ToggleStep(context.Context, string, string) (bool, error)    { return true, nil }
func (f *fakeStore) ReorderSteps(context.Context, string, []string) error        { return nil }
func (f *fakeStore) DeleteStep(context.Context, string, string) error            { return nil }
func (f *fakeStore) InsertComment(context.Context, store.Comment) error          { return nil }
func (f *fakeStore) ListComments(context.Context, string) ([]store.Comment, error) {
	return nil, nil
}

func (f *fakeStore) ListWorkflows(context.Context) ([]store.Workflow, error) { return nil, nil }
func (f *fakeStore) GetWorkflow(ctx context.Context, workflowID string) (store.Workflow, error) {
	if f.getWorkflowFn != nil {
		return f.getWorkflowFn(ctx, workflowID)
	}
	return store.Workflow{}, sql.ErrNoRows
}
func (f *fakeStore) InsertWorkflow(context.Context, store.Workflow) error         { return nil }
func (f *fakeStore) UpdateWorkflow(context.Context, string, string, string) error { return nil }
func (f *fakeStore) DeleteWorkflow(context.Context, string) error                 { return nil }
func (f *fakeStore) ListStages(context.Context, string) ([]store.Stage, error)    { return nil, nil }
func (f *fakeStore) GetStage(ctx context.Context, stageID string) (store.Stage, error) {
	if f.getStageFn != nil {
		return f.getStageFn(ctx, stageID)
	}
	return store.Stage{}, sql.ErrNoRows
}
func (f *fakeStore) InsertStage(context.Context, store.Stage) error { return nil }
func (f *fakeStore) UpdateStage(context.Context, string, string, string, string) error {
	return nil
}
func (f *fakeStore) StageTaskCount(ctx context.Context, stageID string) (int, error) {
	if f.stageTaskCountFn != nil {
		return f.stageTaskCountFn(ctx, stageID)
	}
	return 0, nil
}
func (f *fakeStore) DeleteStage(context.Context, string) error { return nil }

func (f *fakeStore) InsertDirectMessage(ctx context.Context, msg store.DirectMessage) error {
	if f.insertDirectMessageFn != nil {
		return f.insertDirectMessageFn(ctx, msg)
	}
	return nil
}
func (f *fakeStore) ListDirectMessages(context.Context, string, string, int) ([]store.DirectMessage, error) {
	return nil, nil
}
func (f *fakeStore) MarkDirectMessagesRead(context.Context, string, string) error { return nil }
func (f *fakeStore) ListConversations(context.Context, string) ([]store.Conversation, error) {
	return nil, nil
}
func (f *fakeStore) InsertChannel(context.Context, store.Channel) error { return nil }
func (f *fakeStore) GetChannel(ctx context.Context, channelID string) (store.Channel, error) {
	if f.getChannelFn != nil {
		return f.getChannelFn(ctx, channelID)
	}
	return store.Channel{ID: channelID, Name: "channel"}, nil
}
func (f *fakeStore) ListUserChannels(context.Context, string) ([]store.Channel, error) {
	return nil, nil
}
func (f *fakeStore) AddChannelMember(context.Context, string, string, bool) error { return nil }
func (f *fakeStore) RemoveChannelMember(context.Context, string, string) error    { return nil }
func (f *fakeStore) ListChannelMembers(context.Context, string) ([]store.ChannelMember, error) {
	return nil, nil
}
func (f *fakeStore) IsChannelMember(ctx context.Context, channelID, userID string) (bool, error) {
	if f.isChannelMemberFn != nil {
		return f.isChannelMemberFn(ctx, channelID, userID)
	}
	return false, nil
}
func (f *fakeStore) IsChannelAdmin(ctx context.Context, channelID, userID string) (bool, error) {
	if f.isChannelAdminFn != nil {
		return f.isChannelAdminFn(ctx, channelID, userID)
	}
	return false, nil
}
func (f *fakeStore) InsertGroupMessage(context.Context, store.GroupMessage) error { return nil }
func (f *fakeStore) ListGroupMessages(context.Context, string, int) ([]store.GroupMessage, error) {
	return nil, nil
}

func (f *fakeStore) ListStockItems(ctx context.Context) ([]store.StockItem, error) {
	if f.listStockItemsFn != nil {
		return f.listStockItemsFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) GetStockItem(ctx context.Context, itemID string) (store.StockItem, error) {
	if f.getStockItemFn != nil {
		return f.getStockItemFn(ctx, itemID)
	}
	return store.StockItem{}, sql.ErrNoRows
}
func (f *fakeStore) InsertStockItem(ctx context.Context, item store.StockItem) error {
	if f.insertStockItemFn != nil {
		return f.insertStockItemFn(ctx, item)
	}
	return nil
}
func (f *fakeStore) UpdateStockItem(context.Context, store.StockItem) error { return nil }
func (f *fakeStore) DeleteStockItem(context.Context, string) error          { return nil }
func (f *fakeStore) AdjustStockQuantity(ctx context.Context, movement store.StockMovement) (int, error) {
	if f.adjustStockQuantityFn != nil {
		return f.adjustStockQuantityFn(ctx, movement)
	}
	return 0, nil
}
func (f *fakeStore) ListStockMovements(context.Context, string, int) ([]store.StockMovement, error) {
	return nil, nil
}
func (f *fakeStore) GetPermission(ctx context.Context, userID, feature string) (store.Permission, error) {
	if f.getPermissionFn != nil {
		return f.getPermissionFn(ctx, userID, feature)
	}
	return store.Permission{}, nil
}
func (f *fakeStore) ListPermissions(context.Context, string) ([]store.Permission, error) {
	return nil, nil
}
func (f *fakeStore) SavePermission(context.Context, store.Permission) error { return nil }
func (f *fakeStore) DeletePermission(context.Context, string, string) error { return nil }
func (f *fakeStore) ListManagers(ctx context.Context, feature string) ([]string, error) {
	if f.listManagersFn != nil {
		return f.listManagersFn(ctx, feature)
	}
	return nil, nil
}

func (f *fakeStore) ListClients(context.Context) ([]store.Client, error) { return nil, nil }
func (f *fakeStore) GetClient(ctx context.Context, clientID string) (store.Client, error) {
	if f.getClientFn != nil {
		return f.getClientFn(ctx, clientID)
	}
	return store.Client{}, sql.ErrNoRows
}
func (f *fakeStore) InsertClient(context.Context, store.Client) error { return nil }
func (f *fakeStore) UpdateClient(context.Context, store.Client) error { return nil }
func (f *fakeStore) DeleteClient(context.Context, string) error       { return nil }
func (f *fakeStore) ListClientServices(context.Context, string) ([]store.ClientService, error) {
	return nil, nil
}
func (f *fakeStore) GetClientService(ctx context.Context, serviceID string) (store.ClientService, error) {
	if f.getClientServiceFn != nil {
		return f.getClientServiceFn(ctx, serviceID)
	}
	return store.ClientService{}, sql.ErrNoRows
}
func (f *fakeStore) InsertClientService(context.Context, store.ClientService) error { return nil }
func (f *fakeStore) UpdateClientService(context.Context, store.ClientService) error { return nil }
func (f *fakeStore) SetServiceContract(context.Context, string, string, string) error {
	return nil
}
func (f *fakeStore) DeleteClientService(context.Context, string) error { return nil }

func (f *fakeStore) NextProformaNumber(ctx context.Context) (string, error) {
	if f.nextProformaNumberFn != nil {
		return f.nextProformaNumberFn(ctx)
	}
	return "PF-0001", nil
}
func (f *fakeStore) ListProformas(context.Context) ([]store.Proforma, error) { return nil, nil }
func (f *fakeStore) GetProforma(ctx context.Context, proformaID string) (store.Proforma, error) {
	if f.getProformaFn != nil {
		return f.getProformaFn(ctx, proformaID)
	}
	return store.Proforma{}, sql.ErrNoRows
}
func (f *fakeStore) InsertProforma(ctx context.Context, proforma store.Proforma) error {
	if f.insertProformaFn != nil {
		return f.insertProformaFn(ctx, proforma)
	}
	return nil
}
func (f *fakeStore) UpdateProforma(context.Context, store.Proforma) error { return nil }
func (f *fakeStore) DeleteProforma(context.Context, string) error         { return nil }
func (f *fakeStore) ListExpenses(context.Context, int) ([]store.Expense, error) {
	return nil, nil
}
func (f *fakeStore) GetExpense(ctx context.Context, expenseID string) (store.Expense, error) {
	if f.getExpenseFn != nil {
		return f.getExpenseFn(ctx, expenseID)
	}
	return store.Expense{}, sql.ErrNoRows
}
func (f *fakeStore) InsertExpense(context.Context, store.Expense) error { return nil }
func (f *fakeStore) UpdateExpense(context.Context, store.Expense) error { return nil }
func (f *fakeStore) DeleteExpense(context.Context, string) error        { return nil }
func (f *fakeStore) MonthlyExpenseSummary(context.Context, time.Time) ([]store.CategoryTotal, error) {
	return nil, nil
}

func (f *fakeStore) InsertEmailNotification(ctx context.Context, n store.EmailNotification) error {
	if f.insertEmailNotificationFn != nil {
		return f.insertEmailNotificationFn(ctx, n)
	}
	return nil
}
func (f *fakeStore) ListNotifications(context.Context, string, int) ([]store.EmailNotification, error) {
	return nil, nil
}
func (f *fakeStore) UnreadNotificationCount(context.Context, string) (int, error) { return 0, nil }
func (f *fakeStore) MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error) {
	if f.markNotificationReadFn != nil {
		return f.markNotificationReadFn(ctx, userID, notificationID)
	}
	return true, nil
}
func (f *fakeStore) MarkAllNotificationsRead(context.Context, string) error { return nil }

func newTestService(fs *fakeStore) *Service {
	return &Service{
		cfg: config.Config{
			TokenSecret: "test-secret",
			AccessTTL:   time.Hour,
			RefreshTTL:  24 * time.Hour,
			AppBaseURL:  "http://localhost:5173",
		},
		store:    fs,
		refresh:  fs,
		accounts: authpw.NewService(fs),
	}
}

func TestNotificationAllowed(t *testing.T) {
	prefs := store.NotificationPreferences{
		TaskAssigned:  true,
		DirectMessage: false,
		StockAlert:    true,
	}

	if !notificationAllowed(prefs, "task-assigned") {
		t.Errorf("expected task-assigned to be allowed")
	}
	if notificationAllowed(prefs, "direct-message") {
		t.Errorf("expected direct-message to be filtered")
	}
	if !notificationAllowed(prefs, "stock-alert") {
		t.Errorf("expected stock-alert to be allowed")
	}
	// Unknown kinds pass through rather than silently dropping mail.
	if !notificationAllowed(prefs, "something-new") {
		t.Errorf("expected unknown kind to be allowed")
	}
}

func TestNotifySkipsWhenPreferenceOff(t *testing.T) {
	inserted := 0
	fs := &fakeStore{
		getPreferencesFn: func(_ context.Context, userID string) (store.NotificationPreferences, error) {
			prefs := store.DefaultPreferences(userID)
			prefs.TaskComment = false
			return prefs, nil
		},
		insertEmailNotificationFn: func(context.Context, store.EmailNotification) error {
			inserted++
			return nil
		},
	}
	svc := newTestService(fs)

	svc.notify(context.Background(), "user-1", "task-comment", "New comment", "New comment", "body", "/tasks/tsk_1")
	if inserted != 0 {
		t.Fatalf("expected no notification enqueued, got %d", inserted)
	}

	svc.notify(context.Background(), "user-1", "task-assigned", "Assigned", "Assigned", "body", "/tasks/tsk_1")
	if inserted != 1 {
		t.Fatalf("expected one notification enqueued, got %d", inserted)
	}
}

func TestIssueSessionStoresHashedRefreshToken(t *testing.T) {
	var savedHash string
	fs := &fakeStore{}
	svc := newTestService(fs)
	svc.refresh = &captureRefreshStore{saveFn: func(tokenHash string) { savedHash = tokenHash }}

	session, err := svc.issueSession(context.Background(), store.User{ID: "usr_1", Username: "avery"})
	if err != nil {
		t.Fatalf("issueSession: %v", err)
	}
	if session.Token == "" || session.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", session)
	}
	if savedHash == "" {
		t.Fatalf("expected refresh session to be saved")
	}
	if savedHash == session.RefreshToken {
		t.Fatalf("refresh token must be stored hashed, not in the clear")
	}
}

type captureRefreshStore struct {
	saveFn func(tokenHash string)
}

func (c *captureRefreshStore) SaveRefreshSession(_ context.Context, tokenHash, _ string, _ time.Time) error {
	if c.saveFn != nil {
		c.saveFn(tokenHash)
	}
	return nil
}

func (c *captureRefreshStore) LookupRefreshSession(context.Context, string) (store.User, error) {
	return store.User{}, sql.ErrNoRows
}

func (c *captureRefreshStore) RevokeRefreshSession(context.Context, string) error { return nil }
