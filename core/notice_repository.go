package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type Notice struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type NoticeRepository interface {
	List(ctx context.Context, page, perPage int) ([]Notice, int, error)
	Get(ctx context.Context, id int64) (*Notice, error)
}

type PgNoticeRepository struct {
	db DBTX
}

func NewPgNoticeRepository(db DBTX) *PgNoticeRepository {
	return &PgNoticeRepository{db: db}
}

func (r *PgNoticeRepository) List(ctx context.Context, page, perPage int) ([]Notice, int, error) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, errors.New("invalid pagination")
	}
	const countQ = `SELECT COUNT(*) FROM notices`
	var total int
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
SELECT n.id, n.title, COALESCE(n.content, ''), n.author_id, e.name, n.created_at, n.updated_at
FROM notices n
JOIN employees e ON e.employee_id = n.author_id
ORDER BY n.created_at DESC, n.id DESC
LIMIT $1 OFFSET $2
`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]Notice, 0, perPage)
	for rows.Next() {
		var n Notice
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.AuthorID, &n.AuthorName, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

func (r *PgNoticeRepository) Get(ctx context.Context, id int64) (*Notice, error) {
	const q = `
SELECT n.id, n.title, COALESCE(n.content, ''), n.author_id, e.name, n.created_at, n.updated_at
FROM notices n
JOIN employees e ON e.employee_id = n.author_id
WHERE n.id=$1`
	var n Notice
	if err := r.db.QueryRow(ctx, q, id).Scan(&n.ID, &n.Title, &n.Content, &n.AuthorID, &n.AuthorName, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}
