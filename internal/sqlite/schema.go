package sqlite

// Schema creates all tables. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS agents (
    id               TEXT PRIMARY KEY,
    user_id          TEXT NOT NULL DEFAULT '',
    name             TEXT NOT NULL,
    url              TEXT NOT NULL,
    method           TEXT NOT NULL DEFAULT 'GET',
    headers          TEXT NOT NULL DEFAULT '{}',
    query_params     TEXT NOT NULL DEFAULT '{}',
    body_template    TEXT NOT NULL DEFAULT '',
    extract_path     TEXT NOT NULL DEFAULT '',
    auth_method      TEXT NOT NULL DEFAULT 'none',
    auth_secret      TEXT NOT NULL DEFAULT '',
    interval_minutes INTEGER NOT NULL CHECK(interval_minutes > 0),
    enabled          INTEGER NOT NULL DEFAULT 1,
    execution_count  INTEGER NOT NULL DEFAULT 0,
    success_count    INTEGER NOT NULL DEFAULT 0,
    failure_count    INTEGER NOT NULL DEFAULT 0,
    last_run         TEXT NULL,
    next_run         TEXT NULL,
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_agents_due ON agents(enabled, next_run);

CREATE TABLE IF NOT EXISTS executions (
    id             TEXT PRIMARY KEY,
    agent_id       TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
    started_at     TEXT NOT NULL,
    status         TEXT NOT NULL CHECK(status IN ('success', 'error')),
    latency_ms     INTEGER NOT NULL DEFAULT 0,
    response_size  INTEGER NOT NULL DEFAULT 0,
    status_code    INTEGER NOT NULL DEFAULT 0,
    payload        TEXT NOT NULL DEFAULT '',
    numeric_fields TEXT NOT NULL DEFAULT '{}',
    text_fields    TEXT NOT NULL DEFAULT '{}',
    error          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_executions_agent ON executions(agent_id, started_at);
CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status, started_at);

CREATE TABLE IF NOT EXISTS entities (
    id           TEXT PRIMARY KEY,
    agent_id     TEXT NOT NULL,
    execution_id TEXT NOT NULL REFERENCES executions(id) ON DELETE CASCADE,
    type         TEXT NOT NULL,
    value        TEXT NOT NULL,
    confidence   REAL NOT NULL,
    field_path   TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_execution ON entities(execution_id);
CREATE INDEX IF NOT EXISTS idx_entities_type_value ON entities(type, value);

CREATE TABLE IF NOT EXISTS correlations (
    id              TEXT PRIMARY KEY,
    source_agent_id TEXT NOT NULL,
    target_agent_id TEXT NOT NULL,
    execution_id    TEXT NOT NULL,
    type            TEXT NOT NULL,
    strength        REAL NOT NULL,
    shared_entities TEXT NOT NULL DEFAULT '[]',
    created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_correlations_source ON correlations(source_agent_id, created_at);
CREATE INDEX IF NOT EXISTS idx_correlations_target ON correlations(target_agent_id, created_at);
`
