package postgres

// Schema is applied on connect; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id         BIGSERIAL PRIMARY KEY,
	url        TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	about      TEXT NOT NULL DEFAULT '',
	scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
