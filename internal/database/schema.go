package database

// Schema is a base schema plus its incremental migrations.
// Migrations[0] is empty because version 0 uses the base schema;
// the schema version after migrating is len(Migrations).
type Schema struct {
	Name       string
	Base       string
	Migrations []string
}

// TrackerSchema holds tracked anime, the AniDB response cache and the
// rate limit slot
var TrackerSchema = Schema{
	Name:       "tracker",
	Base:       trackerSchema,
	Migrations: trackerMigrations,
}

// TitleSchema holds the disposable title search index
var TitleSchema = Schema{
	Name:       "titles",
	Base:       titleSchema,
	Migrations: titleMigrations,
}

const trackerSchema = `
CREATE TABLE anime (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	aid INTEGER NOT NULL UNIQUE,
	title TEXT NOT NULL,
	total_episodes INTEGER NOT NULL DEFAULT 0 CHECK (total_episodes >= 0),
	watched_episodes INTEGER NOT NULL DEFAULT 0 CHECK (watched_episodes >= 0),
	image_url TEXT,
	description TEXT,
	start_date TEXT,
	end_date TEXT,
	anime_type TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	CHECK (watched_episodes <= total_episodes)
);

CREATE INDEX idx_anime_title ON anime(title);

CREATE TABLE api_cache (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
);

CREATE INDEX idx_api_cache_fetched_at ON api_cache(fetched_at);

CREATE TABLE rate_limit (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	last_ts INTEGER NOT NULL
);

INSERT INTO rate_limit (id, last_ts) VALUES (1, 0);
`

var trackerMigrations = []string{
	"",
}

const titleSchema = `
CREATE TABLE titles (
	aid INTEGER NOT NULL,
	lang TEXT NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL
);

CREATE INDEX idx_titles_aid ON titles(aid);
CREATE INDEX idx_titles_title ON titles(title);

CREATE VIRTUAL TABLE titles_fts
USING fts5(title, lang, type, aid UNINDEXED, content='titles', content_rowid='rowid');
`

var titleMigrations = []string{
	"",
}
