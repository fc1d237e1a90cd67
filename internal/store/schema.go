package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
    user_id              INTEGER PRIMARY KEY,
    login                TEXT NOT NULL,
    first_name           TEXT,
    last_name            TEXT,
    platform_level       INTEGER,
    total_xp             INTEGER,
    has_results          INTEGER NOT NULL DEFAULT 0,
    fetched_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS xp_transactions (
    user_id              INTEGER NOT NULL REFERENCES snapshot_meta(user_id) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    tx_id                INTEGER,
    amount               INTEGER NOT NULL,
    created_at           TEXT NOT NULL,
    has_object           INTEGER NOT NULL,
    object_id            INTEGER,
    object_name          TEXT,
    object_type          TEXT,
    PRIMARY KEY (user_id, seq)
);

CREATE TABLE IF NOT EXISTS project_progress (
    user_id              INTEGER NOT NULL REFERENCES snapshot_meta(user_id) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    progress_id          INTEGER,
    grade                REAL,
    created_at           TEXT,
    updated_at           TEXT NOT NULL,
    has_object           INTEGER NOT NULL,
    object_id            INTEGER,
    object_name          TEXT,
    object_type          TEXT,
    PRIMARY KEY (user_id, seq)
);

CREATE TABLE IF NOT EXISTS audit_results (
    user_id              INTEGER NOT NULL REFERENCES snapshot_meta(user_id) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    grade                REAL,
    PRIMARY KEY (user_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_meta_fetched ON snapshot_meta(fetched_at);
`
