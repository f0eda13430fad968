package app

import (
	"context"
	"log"
	"time"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/auth"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/authpw"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/config"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/email"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/export"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/files"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/search"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/session"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/util"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/ws"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	IsAdmin      bool
	JTI          string
	ExpiresAt    time.Time
}

// Feature areas gated by per-user permission records.
const (
	FeatureStock     = "stock"
	FeatureProformas = "proformas"
	FeatureExpenses  = "expenses"
)

var allowedFeatures = map[string]struct{}{
	FeatureStock:     {},
	FeatureProformas: {},
	FeatureExpenses:  {},
}

var allowedTaskStatuses = map[string]struct{}{
	"todo":        {},
	"in-progress": {},
	"done":        {},
}

var allowedTaskPriorities = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
}

var allowedBillingCycles = map[string]struct{}{
	"monthly":   {},
	"quarterly": {},
	"yearly":    {},
	"one-time":  {},
}

var allowedProformaStatuses = map[string]struct{}{
	"draft":    {},
	"sent":     {},
	"approved": {},
}

type dataStore interface {
	// Users and auth
	Ping(ctx context.Context) error
	GetUserByID(context.Context, string) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	CreateUser(context.Context, store.User) error
	ListUsers(context.Context) ([]store.User, error)
	UpdateUserProfile(context.Context, string, string, string) error
	UpdateUserVerificationToken(context.Context, string, string, time.Time) error
	VerifyUserEmail(context.Context, string) error
	UpdateUserPassword(context.Context, string, string) error
	CreatePasswordReset(context.Context, string, string, time.Time) error
	GetPasswordReset(context.Context, string) (string, error)
	MarkPasswordResetUsed(context.Context, string) error
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	GetPreferences(context.Context, string) (store.NotificationPreferences, error)
	SavePreferences(context.Context, store.NotificationPreferences) error

	// Tasks
	ListTasks(context.Context) ([]store.Task, error)
	GetTask(context.Context, string) (store.Task, error)
	InsertTask(context.Context, store.Task) error
	UpdateTask(context.Context, store.Task) error
	UpdateTaskStatus(context.Context, string, string) (bool, error)
	MoveTaskToStage(context.Context, string, *string, *string) error
	DeleteTask(context.Context, string) error
	AddParticipant(context.Context, string, string) error
	RemoveParticipant(context.Context, string, string) error
	ListParticipants(context.Context, string) ([]store.User, error)
	InsertSubtask(context.Context, store.Subtask) error
	ListSubtasks(context.Context, string) ([]store.Subtask, error)
	ToggleSubtask(context.Context, string, string) (bool, error)
	DeleteSubtask(context.Context, string, string) error
	InsertStep(context.Context, store.Step) error
	ListSteps(context.Context, string) ([]store.Step, error)
	ToggleStep(context.Context, string, string) (bool, error)
	ReorderSteps(context.Context, string, []string) error
	DeleteStep(context.Context, string, string) error
	InsertComment(context.Context, store.Comment) error
	ListComments(context.Context, string) ([]store.Comment, error)

	// Workflows
	ListWorkflows(context.Context) ([]store.Workflow, error)
	GetWorkflow(context.Context, string) (store.Workflow, error)
	InsertWorkflow(context.Context, store.Workflow) error
	UpdateWorkflow(context.Context, string, string, string) error
	DeleteWorkflow(context.Context, string) error
	ListStages(context.Context, string) ([]store.Stage, error)
	GetStage(context.Context, string) (store.Stage, error)
	InsertStage(context.Context, store.Stage) error
	UpdateStage(context.Context, string, string, string, string) error
	StageTaskCount(context.Context, string) (int, error)
	DeleteStage(context.Context, string) error

	// Messaging
	InsertDirectMessage(context.Context, store.DirectMessage) error
	ListDirectMessages(context.Context, string, string, int) ([]store.DirectMessage, error)
	MarkDirectMessagesRead(context.Context, string, string) error
	ListConversations(context.Context, string) ([]store.Conversation, error)
	InsertChannel(context.Context, store.Channel) error
	GetChannel(context.Context, string) (store.Channel, error)
	ListUserChannels(context.Context, string) ([]store.Channel, error)
	AddChannelMember(context.Context, string, string, bool) error
	RemoveChannelMember(context.Context, string, string) error
	ListChannelMembers(context.Context, string) ([]store.ChannelMember, error)
	IsChannelMember(context.Context, string, string) (bool, error)
	IsChannelAdmin(context.Context, string, string) (bool, error)
	InsertGroupMessage(context.Context, store.GroupMessage) error
	ListGroupMessages(context.Context, string, int) ([]store.GroupMessage, error)

	// Stock and permissions
	ListStockItems(context.Context) ([]store.StockItem, error)
	GetStockItem(context.Context, string) (store.StockItem, error)
	InsertStockItem(context.Context, store.StockItem) error
	UpdateStockItem(context.Context, store.StockItem) error
	DeleteStockItem(context.Context, string) error
	AdjustStockQuantity(context.Context, store.StockMovement) (int, error)
	ListStockMovements(context.Context, string, int) ([]store.StockMovement, error)
	GetPermission(context.Context, string, string) (store.Permission, error)
	ListPermissions(context.Context, string) ([]store.Permission, error)
	SavePermission(context.Context, store.Permission) error
	DeletePermission(context.Context, string, string) error
	ListManagers(context.Context, string) ([]string, error)

	// Clients
	ListClients(context.Context) ([]store.Client, error)
	GetClient(context.Context, string) (store.Client, error)
	InsertClient(context.Context, store.Client) error
	UpdateClient(context.Context, store.Client) error
	DeleteClient(context.Context, string) error
	ListClientServices(context.Context, string) ([]store.ClientService, error)
	GetClientService(context.Context, string) (store.ClientService, error)
	InsertClientService(context.Context, store.ClientService) error
	UpdateClientService(context.Context, store.ClientService) error
	SetServiceContract(context.Context, string, string, string) error
	DeleteClientService(context.Context, string) error

	// Proformas and expenses
	NextProformaNumber(context.Context) (string, error)
	ListProformas(context.Context) ([]store.Proforma, error)
	GetProforma(context.Context, string) (store.Proforma, error)
	InsertProforma(context.Context, store.Proforma) error
	UpdateProforma(context.Context, store.Proforma) error
	DeleteProforma(context.Context, string) error
	ListExpenses(context.Context, int) ([]store.Expense, error)
	GetExpense(context.Context, string) (store.Expense, error)
	InsertExpense(context.Context, store.Expense) error
	UpdateExpense(context.Context, store.Expense) error
	DeleteExpense(context.Context, string) error
	MonthlyExpenseSummary(context.Context, time.Time) ([]store.CategoryTotal, error)

	// Notifications
	InsertEmailNotification(context.Context, store.EmailNotification) error
	ListNotifications(context.Context, string, int) ([]store.EmailNotification, error)
	UnreadNotificationCount(context.Context, string) (int, error)
	MarkNotificationRead(context.Context, string, string) (bool, error)
	MarkAllNotificationsRead(context.Context, string) error
}

// refreshSessionStore holds hashed refresh tokens; backed by Redis when
// configured, otherwise by the Postgres store itself.
type refreshSessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type mailer interface {
	IsConfigured() bool
	SendHTMLEmail(to []string, subject, htmlBody string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	refresh  refreshSessionStore
	accounts *authpw.Service
	search   *search.Service
	files    *files.Store
	exporter *export.Service
	hub      *ws.Hub
	mail     mailer
}

func New(cfg config.Config, dataStore *store.PostgresStore, searchService *search.Service, fileStore *files.Store, exporter *export.Service, hub *ws.Hub, mail *email.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		refresh:  dataStore,
		accounts: authpw.NewService(dataStore),
		search:   searchService,
		files:    fileStore,
		exporter: exporter,
		hub:      hub,
		mail:     mail,
	}
}

// NewWithSessionStore is New with refresh tokens kept in Redis.
func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions *session.RedisStore, searchService *search.Service, fileStore *files.Store, exporter *export.Service, hub *ws.Hub, mail *email.Service) *Service {
	service := New(cfg, dataStore, searchService, fileStore, exporter, hub, mail)
	service.refresh = sessions
	return service
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.Username,
		Admin: user.IsAdmin,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.refresh.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Username,
		IsAdmin:      user.IsAdmin,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.refresh.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.refresh.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// The Redis store only holds the token claims; fetch the full row so
	// admin and profile changes since issuance are reflected.
	if full, err := s.store.GetUserByID(ctx, user.ID); err == nil {
		user = full
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Username,
		IsAdmin:   user.IsAdmin,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.refresh.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// permissionFor resolves the effective permission record for a feature.
// Admins implicitly hold every flag; users without a row get the
// default-closed zero value.
func (s *Service) permissionFor(ctx context.Context, session Session, feature string) (store.Permission, error) {
	if session.IsAdmin {
		return store.Permission{
			UserID:    session.UserID,
			Feature:   feature,
			CanView:   true,
			CanManage: true,
			CanAdjust: true,
			CanDelete: true,
		}, nil
	}
	return s.store.GetPermission(ctx, session.UserID, feature)
}

// notify enqueues a preference-gated email notification. Best effort: the
// caller's mutation has already committed, so failures are logged and
// swallowed rather than surfaced.
func (s *Service) notify(ctx context.Context, userID, kind, subject, heading, body, linkPath string) {
	prefs, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		log.Printf("notify: load preferences for %s: %v", userID, err)
		return
	}
	if !notificationAllowed(prefs, kind) {
		return
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("notify: load user %s: %v", userID, err)
		return
	}

	linkURL := ""
	if linkPath != "" {
		linkURL = s.cfg.AppBaseURL + linkPath
	}
	html, err := email.RenderNotification(email.TemplateData{
		AppName:  "TeamTaskFlow",
		Username: user.Username,
		Heading:  heading,
		Body:     body,
		LinkURL:  linkURL,
		LinkText: "Open TeamTaskFlow",
	})
	if err != nil {
		log.Printf("notify: render %s for %s: %v", kind, userID, err)
		return
	}

	if err := s.store.InsertEmailNotification(ctx, store.EmailNotification{
		ID:       util.NewID("ntf"),
		UserID:   userID,
		Kind:     kind,
		Subject:  subject,
		BodyHTML: html,
	}); err != nil {
		log.Printf("notify: enqueue %s for %s: %v", kind, userID, err)
	}
}

func notificationAllowed(prefs store.NotificationPreferences, kind string) bool {
	switch kind {
	case "task-assigned":
		return prefs.TaskAssigned
	case "task-comment":
		return prefs.TaskComment
	case "task-status":
		return prefs.TaskStatus
	case "direct-message":
		return prefs.DirectMessage
	case "group-message":
		return prefs.GroupMessage
	case "stock-alert":
		return prefs.StockAlert
	default:
		return true
	}
}

// broadcast pushes an event to the given users' live connections.
func (s *Service) broadcast(userIDs []string, eventType string, payload any) {
	if s.hub == nil || len(userIDs) == 0 {
		return
	}
	s.hub.SendToUsers(userIDs, ws.Event{Type: eventType, Payload: payload})
}

func (s *Service) broadcastTo(userID string, eventType string, payload any) {
	if s.hub == nil {
		return
	}
	s.hub.SendToUser(userID, ws.Event{Type: eventType, Payload: payload})
}

func (s *Service) userOnline(userID string) bool {
	return s.hub != nil && s.hub.IsOnline(userID)
}

func (s *Service) mailConfigured() bool {
	return s.mail != nil && s.mail.IsConfigured()
}
