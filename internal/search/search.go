package search

import "context"

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultTask    ResultType = "task"
	ResultClient  ResultType = "client"
	ResultMessage ResultType = "message"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type      ResultType `json:"type"`
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	ChannelID string     `json:"channelId,omitempty"`
	Status    string     `json:"status,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexTask(t TaskRecord) error
	IndexClient(c ClientRecord) error
	IndexMessage(m MessageRecord) error
	DeleteTask(id string) error
	DeleteClient(id string) error
}

// TaskRecord is the data we index for a task.
type TaskRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

// ClientRecord is the data we index for a client.
type ClientRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// MessageRecord is the data we index for a group message.
type MessageRecord struct {
	ID         string `json:"id"`
	Body       string `json:"body"`
	ChannelID  string `json:"channelId"`
	SenderName string `json:"senderName"`
}
