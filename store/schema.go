package store

import "database/sql"

// Schema is the complete service schema. Timestamps are Unix milliseconds;
// string-list columns hold JSON arrays.
const Schema = `
-- Keyword analyses ingested from the storefront app. Append-only; the newest
-- row per tenant is the live analysis.
CREATE TABLE IF NOT EXISTS keyword_analyses (
    id                TEXT PRIMARY KEY,
    tenant            TEXT NOT NULL,
    main_products     TEXT NOT NULL DEFAULT '[]',
    problems_solved   TEXT NOT NULL DEFAULT '[]',
    customer_searches TEXT NOT NULL DEFAULT '[]',
    legacy_keywords   TEXT NOT NULL DEFAULT '[]',
    updated_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_keyword_analyses_tenant ON keyword_analyses(tenant, updated_at DESC);

-- Published blog posts, both automated and manual.
CREATE TABLE IF NOT EXISTS posts (
    id               TEXT PRIMARY KEY,
    tenant           TEXT NOT NULL,
    title            TEXT NOT NULL,
    slug             TEXT NOT NULL,
    body_html        TEXT NOT NULL DEFAULT '',
    summary          TEXT NOT NULL DEFAULT '',
    tags             TEXT NOT NULL DEFAULT '[]',
    primary_topic    TEXT NOT NULL DEFAULT '',
    keywords_focused TEXT NOT NULL DEFAULT '[]',
    content_angle    TEXT NOT NULL DEFAULT '',
    content_hash     TEXT NOT NULL DEFAULT '',
    blog_id          TEXT NOT NULL DEFAULT '',
    article_id       TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL DEFAULT '',
    word_count       INTEGER NOT NULL DEFAULT 0,
    source           TEXT NOT NULL DEFAULT 'automation',
    created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_tenant_time ON posts(tenant, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_posts_tenant_hash ON posts(tenant, content_hash);

-- Automation schedules, one row per tenant.
CREATE TABLE IF NOT EXISTS schedules (
    tenant            TEXT PRIMARY KEY,
    enabled           INTEGER NOT NULL DEFAULT 0,
    frequency         TEXT NOT NULL DEFAULT 'weekly',
    timezone          TEXT NOT NULL DEFAULT 'Asia/Jerusalem',
    target_day        INTEGER NOT NULL DEFAULT 0,
    target_hour       INTEGER NOT NULL DEFAULT 10,
    last_generated_at INTEGER,
    next_target_at    INTEGER,
    status            TEXT NOT NULL DEFAULT 'idle',
    last_error        TEXT NOT NULL DEFAULT '',
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedules_enabled ON schedules(enabled, next_target_at);
`

// ApplySchema creates all tables and indexes if they do not exist.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
