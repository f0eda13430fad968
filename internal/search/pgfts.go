package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across tasks, clients, and group messages
// using plainto_tsquery and ts_rank, with ts_headline for snippets. The
// tsvector expressions match the GIN indexes created by the migrations.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('simple', $1)"
	args := []any{q.Text}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultTask {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'task'::text AS type, t.id, t.title,
				ts_headline('simple', coalesce(t.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS channel_id, t.status,
				ts_rank(to_tsvector('simple', t.title || ' ' || t.description), %s) AS rank
			FROM tasks t
			WHERE to_tsvector('simple', t.title || ' ' || t.description) @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultClient {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'client'::text AS type, c.id, c.name,
				ts_headline('simple', coalesce(c.email, '') || ' ' || coalesce(c.address, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS channel_id, ''::text AS status,
				ts_rank(to_tsvector('simple', c.name || ' ' || c.email || ' ' || c.address), %s) AS rank
			FROM clients c
			WHERE to_tsvector('simple', c.name || ' ' || c.email || ' ' || c.address) @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultMessage {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'message'::text AS type, m.id, u.username AS title,
				ts_headline('simple', m.body, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				m.channel_id, ''::text AS status,
				ts_rank(to_tsvector('simple', m.body), %s) AS rank
			FROM group_messages m
			JOIN users u ON u.id = m.sender_id
			WHERE to_tsvector('simple', m.body) @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, channel_id, status
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.ChannelID, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]TaskRecord, []ClientRecord, []MessageRecord, error) {
	taskRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, description, status, priority
		FROM tasks
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load tasks: %w", err)
	}
	defer taskRows.Close()

	tasks := make([]TaskRecord, 0)
	for taskRows.Next() {
		var t TaskRecord
		if err := taskRows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority); err != nil {
			return nil, nil, nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := taskRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate tasks: %w", err)
	}

	clientRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, email, address
		FROM clients
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load clients: %w", err)
	}
	defer clientRows.Close()

	clients := make([]ClientRecord, 0)
	for clientRows.Next() {
		var c ClientRecord
		if err := clientRows.Scan(&c.ID, &c.Name, &c.Email, &c.Address); err != nil {
			return nil, nil, nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := clientRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate clients: %w", err)
	}

	msgRows, err := p.db.QueryContext(ctx, `
		SELECT m.id, m.body, m.channel_id, u.username
		FROM group_messages m
		JOIN users u ON u.id = m.sender_id
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load messages: %w", err)
	}
	defer msgRows.Close()

	messages := make([]MessageRecord, 0)
	for msgRows.Next() {
		var m MessageRecord
		if err := msgRows.Scan(&m.ID, &m.Body, &m.ChannelID, &m.SenderName); err != nil {
			return nil, nil, nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := msgRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate messages: %w", err)
	}

	return tasks, clients, messages, nil
}
