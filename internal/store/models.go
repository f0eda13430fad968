package store

import "time"

type User struct {
	ID                    string
	Username              string
	Email                 string
	PasswordHash          string
	AvatarColor           string
	IsAdmin               bool
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	DeactivatedAt         *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NotificationPreferences are the per-user email opt-in flags.
// A user with no row gets the all-on defaults.
type NotificationPreferences struct {
	UserID        string
	TaskAssigned  bool
	TaskComment   bool
	TaskStatus    bool
	DirectMessage bool
	GroupMessage  bool
	StockAlert    bool
}

func DefaultPreferences(userID string) NotificationPreferences {
	return NotificationPreferences{
		UserID:        userID,
		TaskAssigned:  true,
		TaskComment:   true,
		TaskStatus:    true,
		DirectMessage: true,
		GroupMessage:  true,
		StockAlert:    true,
	}
}

type Workflow struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Stage struct {
	ID          string
	WorkflowID  string
	Name        string
	Color       string
	Description string
	SortOrder   int
}

type Task struct {
	ID          string
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	WorkflowID  *string
	StageID     *string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Subtask struct {
	ID        string
	TaskID    string
	Title     string
	Completed bool
	CreatedAt time.Time
}

type Step struct {
	ID        string
	TaskID    string
	Title     string
	SortOrder int
	Completed bool
	CreatedAt time.Time
}

type Comment struct {
	ID         string
	TaskID     string
	AuthorID   string
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

type DirectMessage struct {
	ID          string
	SenderID    string
	RecipientID string
	Body        string
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// Conversation is one row of the direct-message inbox: the partner plus
// the latest message exchanged with them.
type Conversation struct {
	PartnerID   string
	PartnerName string
	LastBody    string
	LastAt      time.Time
	Unread      int
}

type Channel struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
}

type ChannelMember struct {
	ChannelID string
	UserID    string
	Username  string
	IsAdmin   bool
	JoinedAt  time.Time
}

type GroupMessage struct {
	ID         string
	ChannelID  string
	SenderID   string
	SenderName string
	Body       string
	CreatedAt  time.Time
}

type StockItem struct {
	ID                   string
	Name                 string
	Description          string
	CostCents            int64
	Quantity             int
	LowQuantityThreshold int
	AssignedTo           *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type StockMovement struct {
	ID          string
	ItemID      string
	Delta       int
	Reason      string
	PerformedBy string
	CreatedAt   time.Time
}

// Permission is a per-user flag set gating one feature area
// (stock, proformas, expenses).
type Permission struct {
	UserID    string
	Feature   string
	CanView   bool
	CanManage bool
	CanAdjust bool
	CanDelete bool
}

type Client struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ClientService struct {
	ID                string
	ClientID          string
	Name              string
	Description       string
	PriceCents        int64
	BillingCycle      string
	StartsOn          *time.Time
	Active            bool
	ContractObjectKey string
	ContractFileName  string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ProformaItem struct {
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type Proforma struct {
	ID         string
	Number     string
	ClientID   string
	ClientName string
	Status     string
	Notes      string
	Items      []ProformaItem
	TotalCents int64
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Expense struct {
	ID          string
	Description string
	AmountCents int64
	Category    string
	IncurredOn  time.Time
	RecordedBy  string
	CreatedAt   time.Time
}

type CategoryTotal struct {
	Category   string
	TotalCents int64
}

type EmailNotification struct {
	ID            string
	UserID        string
	Kind          string
	Subject       string
	BodyHTML      string
	Status        string
	FailureReason string
	Read          bool
	CreatedAt     time.Time
	SentAt        *time.Time
}
