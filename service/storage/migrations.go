package storage

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    run_id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_uuid        TEXT UNIQUE NOT NULL,
    account_id      TEXT NOT NULL,
    region          TEXT NOT NULL,
    mode            TEXT NOT NULL DEFAULT 'adhoc',
    run_timestamp   DATETIME DEFAULT CURRENT_TIMESTAMP,
    run_duration    INTEGER,
    total_controls  INTEGER DEFAULT 0,
    passed_count    INTEGER DEFAULT 0,
    failed_count    INTEGER DEFAULT 0,
    manual_count    INTEGER DEFAULT 0,
    score           REAL DEFAULT 100,
    annotation      TEXT,
    report_url      TEXT,
    cli_version     TEXT,
    run_profile     TEXT,
    run_flags       TEXT,
    created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_account_timestamp
    ON runs(account_id, run_timestamp);
CREATE INDEX IF NOT EXISTS idx_runs_timestamp
    ON runs(run_timestamp DESC);

CREATE TABLE IF NOT EXISTS control_results (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id          INTEGER NOT NULL,
    control_id      TEXT NOT NULL,
    category        INTEGER NOT NULL,
    control_index   INTEGER NOT NULL,
    description     TEXT NOT NULL,
    result          TEXT NOT NULL,
    scored          INTEGER NOT NULL DEFAULT 1,
    fail_reason     TEXT,
    offender_count  INTEGER DEFAULT 0,
    offenders       TEXT,
    created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, control_id)
);

CREATE INDEX IF NOT EXISTS idx_control_results_run ON control_results(run_id);
CREATE INDEX IF NOT EXISTS idx_control_results_control ON control_results(control_id);
CREATE INDEX IF NOT EXISTS idx_control_results_result ON control_results(result);

CREATE TABLE IF NOT EXISTS metrics (
    metric_id       INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id          INTEGER NOT NULL,
    metric_name     TEXT NOT NULL,
    metric_value    REAL NOT NULL,
    metric_unit     TEXT,
    category        TEXT,
    created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_metrics_run ON metrics(run_id);
CREATE INDEX IF NOT EXISTS idx_metrics_name ON metrics(metric_name);
`
