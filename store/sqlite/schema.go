package sqlite

// schema creates the ledger tables. Lot prices are stored as their normalised
// key with an empty string for the default bucket, so the UNIQUE constraint
// also covers rows without a price.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    name TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    open_date TEXT NOT NULL DEFAULT '',
    close_date TEXT NOT NULL DEFAULT '',
    currencies TEXT NOT NULL DEFAULT '',
    booking TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS commodities (
    name TEXT PRIMARY KEY,
    date TEXT NOT NULL DEFAULT '',
    precision INTEGER NOT NULL DEFAULT 0,
    metadata TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS account_lots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account TEXT NOT NULL,
    commodity TEXT NOT NULL,
    price_number TEXT NOT NULL DEFAULT '',
    price_currency TEXT NOT NULL DEFAULT '',
    amount TEXT NOT NULL,
    UNIQUE(account, commodity, price_number, price_currency)
);

CREATE INDEX IF NOT EXISTS idx_account_lots_account
    ON account_lots(account, commodity);

CREATE TABLE IF NOT EXISTS prices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL,
    commodity TEXT NOT NULL,
    number TEXT NOT NULL,
    currency TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL,
    account TEXT NOT NULL,
    path TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS budgets (
    name TEXT PRIMARY KEY,
    commodity TEXT NOT NULL,
    date TEXT NOT NULL DEFAULT '',
    assigned TEXT NOT NULL,
    closed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS options (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS plugins (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    module TEXT NOT NULL,
    config TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ledger_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    filename TEXT NOT NULL DEFAULT '',
    line INTEGER NOT NULL DEFAULT 0,
    col INTEGER NOT NULL DEFAULT 0,
    context TEXT NOT NULL DEFAULT '{}'
);
`
