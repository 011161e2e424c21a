package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/veltaire/plume/autopilot"
	"github.com/veltaire/plume/topic"
)

// SavePost persists a published post record and returns its ID.
func (s *Store) SavePost(ctx context.Context, rec *autopilot.PostRecord) (string, error) {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO posts (id, tenant, title, slug, body_html, summary, tags,
		primary_topic, keywords_focused, content_angle, content_hash,
		blog_id, article_id, url, word_count, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Tenant, rec.Title, rec.Slug, rec.BodyHTML, rec.Summary,
		marshalStrings(rec.Tags), rec.PrimaryTopic, marshalStrings(rec.KeywordsFocused),
		rec.ContentAngle, rec.ContentHash, rec.BlogID, rec.ArticleID, rec.URL,
		rec.WordCount, rec.Source, created.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("save post: %w", err)
	}
	return rec.ID, nil
}

// PostsSince returns the tenant's posts created after the given instant,
// newest first, projected to the fields uniqueness checking needs.
func (s *Store) PostsSince(ctx context.Context, tenant string, since time.Time) ([]*topic.RecentPost, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT primary_topic, keywords_focused, content_angle, content_hash, created_at
		FROM posts WHERE tenant = ? AND created_at > ?
		ORDER BY created_at DESC`, tenant, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
	}
	defer rows.Close()

	var posts []*topic.RecentPost
	for rows.Next() {
		var p topic.RecentPost
		var kw, angle string
		var created int64
		if err := rows.Scan(&p.PrimaryTopic, &kw, &angle, &p.ContentHash, &created); err != nil {
			return nil, fmt.Errorf("scan recent post: %w", err)
		}
		p.KeywordsFocused = unmarshalStrings(kw)
		p.ContentAngle = topic.Angle(angle)
		p.CreatedAt = time.UnixMilli(created)
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

// GetPost retrieves a post by ID, or (nil, nil) when absent.
func (s *Store) GetPost(ctx context.Context, id string) (*autopilot.PostRecord, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, tenant, title, slug, body_html, summary, tags,
		primary_topic, keywords_focused, content_angle, content_hash,
		blog_id, article_id, url, word_count, source, created_at
		FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// ListPosts returns the tenant's posts, newest first, up to limit.
func (s *Store) ListPosts(ctx context.Context, tenant string, limit int) ([]*autopilot.PostRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, tenant, title, slug, body_html, summary, tags,
		primary_topic, keywords_focused, content_angle, content_hash,
		blog_id, article_id, url, word_count, source, created_at
		FROM posts WHERE tenant = ? ORDER BY created_at DESC LIMIT ?`, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []*autopilot.PostRecord
	for rows.Next() {
		rec, err := scanPostRows(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, rec)
	}
	return posts, rows.Err()
}

// CountPosts returns the number of posts the tenant has published.
func (s *Store) CountPosts(ctx context.Context, tenant string) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE tenant = ?`, tenant).Scan(&count)
	return count, err
}

func scanPost(row *sql.Row) (*autopilot.PostRecord, error) {
	var rec autopilot.PostRecord
	var tags, kw string
	var created int64
	err := row.Scan(
		&rec.ID, &rec.Tenant, &rec.Title, &rec.Slug, &rec.BodyHTML, &rec.Summary,
		&tags, &rec.PrimaryTopic, &kw, &rec.ContentAngle, &rec.ContentHash,
		&rec.BlogID, &rec.ArticleID, &rec.URL, &rec.WordCount, &rec.Source, &created,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	rec.Tags = unmarshalStrings(tags)
	rec.KeywordsFocused = unmarshalStrings(kw)
	rec.CreatedAt = time.UnixMilli(created)
	return &rec, nil
}

func scanPostRows(rows *sql.Rows) (*autopilot.PostRecord, error) {
	var rec autopilot.PostRecord
	var tags, kw string
	var created int64
	err := rows.Scan(
		&rec.ID, &rec.Tenant, &rec.Title, &rec.Slug, &rec.BodyHTML, &rec.Summary,
		&tags, &rec.PrimaryTopic, &kw, &rec.ContentAngle, &rec.ContentHash,
		&rec.BlogID, &rec.ArticleID, &rec.URL, &rec.WordCount, &rec.Source, &created,
	)
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	rec.Tags = unmarshalStrings(tags)
	rec.KeywordsFocused = unmarshalStrings(kw)
	rec.CreatedAt = time.UnixMilli(created)
	return &rec, nil
}
