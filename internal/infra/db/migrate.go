package db

import "database/sql"

// MigrateUp creates the pipeline's persistent schema: one immutable Snapshot
// per run, its ranked KeywordRows, their backing SourceRows, keyword alias
// lookups, and a query-count counter table. All statements are idempotent
// (IF NOT EXISTS / ON CONFLICT) so MigrateUp is safe to run on every boot.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
    snapshot_id        TEXT PRIMARY KEY,
    updated_at_utc      TIMESTAMPTZ NOT NULL,
    next_update_at_utc  TIMESTAMPTZ NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS keywords (
    snapshot_id        TEXT NOT NULL REFERENCES snapshots(snapshot_id) ON DELETE CASCADE,
    keyword_id         TEXT NOT NULL,
    keyword            TEXT NOT NULL,

    rank               INT NOT NULL,
    delta_rank         INT NOT NULL DEFAULT 0,
    is_new             BOOLEAN NOT NULL DEFAULT FALSE,

    score              DOUBLE PRECISION NOT NULL,
    score_recency      DOUBLE PRECISION NOT NULL DEFAULT 0,
    score_frequency    DOUBLE PRECISION NOT NULL DEFAULT 0,
    score_authority    DOUBLE PRECISION NOT NULL DEFAULT 0,
    score_internal     DOUBLE PRECISION NOT NULL DEFAULT 0,

    summary_short_ko   TEXT NOT NULL DEFAULT '',
    summary_short_en   TEXT NOT NULL DEFAULT '',
    primary_type       VARCHAR(10) NOT NULL DEFAULT 'news',

    top_source_title     TEXT,
    top_source_url       TEXT,
    top_source_domain    TEXT,
    top_source_image_url TEXT,

    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    PRIMARY KEY (snapshot_id, keyword_id)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE INDEX IF NOT EXISTS idx_keywords_snapshot_rank ON keywords(snapshot_id, rank)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sources (
    id                SERIAL PRIMARY KEY,
    snapshot_id        TEXT NOT NULL,
    keyword_id         TEXT NOT NULL,
    type               VARCHAR(10) NOT NULL,
    title              TEXT NOT NULL,
    url                TEXT NOT NULL,
    domain             TEXT NOT NULL,
    published_at_utc    TIMESTAMPTZ,
    snippet            TEXT NOT NULL DEFAULT '',
    image_url          TEXT NOT NULL,
    title_ko           TEXT NOT NULL DEFAULT '',
    title_en           TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    FOREIGN KEY (snapshot_id, keyword_id) REFERENCES keywords(snapshot_id, keyword_id) ON DELETE CASCADE,
    UNIQUE (snapshot_id, keyword_id, type, url)
)`); err != nil {
		return err
	}

	sourceIndexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_sources_snapshot_keyword_type ON sources(snapshot_id, keyword_id, type)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_snapshot_keyword ON sources(snapshot_id, keyword_id)`,
	}
	for _, idx := range sourceIndexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS keyword_aliases (
    canonical_keyword_id TEXT NOT NULL,
    alias                TEXT NOT NULL,
    lang                 VARCHAR(2) NOT NULL,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (canonical_keyword_id, alias)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS search_counts (
    query            TEXT PRIMARY KEY,
    count            BIGINT NOT NULL DEFAULT 0,
    last_searched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return err
	}

	return nil
}

// MigrateDown drops the pipeline schema in reverse dependency order. Use
// with caution: this deletes all persisted snapshots, keywords and sources.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS search_counts`,
		`DROP TABLE IF EXISTS keyword_aliases`,
		`DROP TABLE IF EXISTS sources`,
		`DROP TABLE IF EXISTS keywords`,
		`DROP TABLE IF EXISTS snapshots`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
