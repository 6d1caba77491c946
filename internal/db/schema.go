package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- AGENT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS agent SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_id ON agent TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS name ON agent TYPE string;
    DEFINE FIELD IF NOT EXISTS url ON agent TYPE string;
    DEFINE FIELD IF NOT EXISTS method ON agent TYPE string DEFAULT "GET";
    DEFINE FIELD IF NOT EXISTS headers ON agent TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS query_params ON agent TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS body_template ON agent TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS extract_path ON agent TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS auth_method ON agent TYPE string DEFAULT "none";
    DEFINE FIELD IF NOT EXISTS auth_secret ON agent TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS interval_minutes ON agent TYPE int ASSERT $value > 0;
    DEFINE FIELD IF NOT EXISTS enabled ON agent TYPE bool DEFAULT true;
    DEFINE FIELD IF NOT EXISTS execution_count ON agent TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS success_count ON agent TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS failure_count ON agent TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS last_run ON agent TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS next_run ON agent TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS created_at ON agent TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON agent TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS agent_due ON agent FIELDS enabled, next_run;

    -- ==========================================================================
    -- EXECUTION TABLE (append-only)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS execution SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS agent_id ON execution TYPE string;
    DEFINE FIELD IF NOT EXISTS started_at ON execution TYPE datetime;
    DEFINE FIELD IF NOT EXISTS status ON execution TYPE string ASSERT $value IN ["success", "error"];
    DEFINE FIELD IF NOT EXISTS latency_ms ON execution TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS response_size ON execution TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS status_code ON execution TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS payload ON execution TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS numeric_fields ON execution TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS text_fields ON execution TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS error ON execution TYPE string DEFAULT "";

    DEFINE INDEX IF NOT EXISTS execution_agent ON execution FIELDS agent_id, started_at;
    DEFINE INDEX IF NOT EXISTS execution_status ON execution FIELDS status, started_at;

    -- ==========================================================================
    -- ENTITY TABLE (append-only)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS entity SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS agent_id ON entity TYPE string;
    DEFINE FIELD IF NOT EXISTS execution_id ON entity TYPE string;
    DEFINE FIELD IF NOT EXISTS type ON entity TYPE string;
    DEFINE FIELD IF NOT EXISTS value ON entity TYPE string;
    DEFINE FIELD IF NOT EXISTS confidence ON entity TYPE float;
    DEFINE FIELD IF NOT EXISTS field_path ON entity TYPE string DEFAULT "";
    -- Position within the tagging batch, for stable ordering
    DEFINE FIELD IF NOT EXISTS seq ON entity TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS created_at ON entity TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS entity_execution ON entity FIELDS execution_id;
    DEFINE INDEX IF NOT EXISTS entity_type_value ON entity FIELDS type, value;

    -- ==========================================================================
    -- CORRELATION TABLE (append-only)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS correlation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS source_agent_id ON correlation TYPE string;
    DEFINE FIELD IF NOT EXISTS target_agent_id ON correlation TYPE string;
    DEFINE FIELD IF NOT EXISTS execution_id ON correlation TYPE string;
    DEFINE FIELD IF NOT EXISTS type ON correlation TYPE string;
    DEFINE FIELD IF NOT EXISTS strength ON correlation TYPE float;
    DEFINE FIELD IF NOT EXISTS shared_entities ON correlation TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS created_at ON correlation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS correlation_source ON correlation FIELDS source_agent_id, created_at;
    DEFINE INDEX IF NOT EXISTS correlation_target ON correlation FIELDS target_agent_id, created_at;
`
