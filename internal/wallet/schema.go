package wallet

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS wallet_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS addresses (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    address     TEXT NOT NULL UNIQUE,
    label       TEXT NOT NULL DEFAULT '',
    amount_sats INTEGER NOT NULL DEFAULT 0,
    used        INTEGER NOT NULL DEFAULT 0
);
`

func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply wallet schema: %w", err)
	}
	return nil
}

const (
	metaWalletID        = "wallet_id"
	metaCreatedAt       = "created_at"
	metaVerifierSalt    = "verifier_salt"
	metaVerifierHash    = "verifier_hash"
	metaDeviceEncrypted = "device_encrypted"
)
