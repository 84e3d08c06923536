package wallet

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"coffer/internal/faults"
)

// initialAddressCount is how many receive addresses a fresh wallet carries.
const initialAddressCount = 8

// Wallet is an open wallet store. Not safe for concurrent use; callers
// serialize access per wallet path.
type Wallet struct {
	db   *sql.DB
	path string

	encrypted       bool
	deviceEncrypted bool
	verifierSalt    string
	verifierHash    string
	walletID        string
}

// Exists reports whether a wallet store is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Open connects to an existing wallet store. A missing file is the
// StoreNotFound fault, not an internal error.
func Open(ctx context.Context, path string) (*Wallet, error) {
	if !Exists(path) {
		return nil, faults.StoreNotFound(path)
	}
	return open(ctx, path)
}

// CreateOptions controls wallet creation.
type CreateOptions struct {
	// Password encrypts the wallet. Empty means unencrypted.
	Password []byte
	// DeviceBound marks the wallet as encrypted by a hardware device; the
	// password bytes are then the device-derived credential.
	DeviceBound bool
}

// Create initializes a new wallet store at path.
func Create(ctx context.Context, path string, opts CreateOptions) (*Wallet, error) {
	if Exists(path) {
		return nil, fmt.Errorf("wallet already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create wallet directory: %w", err)
	}

	w, err := open(ctx, path)
	if err != nil {
		return nil, err
	}

	w.walletID = uuid.NewString()
	meta := map[string]string{
		metaWalletID:  w.walletID,
		metaCreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if len(opts.Password) > 0 {
		salt := uuid.NewString()
		meta[metaVerifierSalt] = salt
		meta[metaVerifierHash] = verifierDigest(salt, opts.Password)
		w.encrypted = true
		w.verifierSalt = salt
		w.verifierHash = meta[metaVerifierHash]
		if opts.DeviceBound {
			meta[metaDeviceEncrypted] = "1"
			w.deviceEncrypted = true
		}
	}
	for key, value := range meta {
		if err := w.setMeta(ctx, key, value); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	if err := w.seedAddresses(ctx); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func open(ctx context.Context, path string) (*Wallet, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open wallet db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if err := applySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	w := &Wallet{db: db, path: path}
	if err := w.loadMeta(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// Path returns the wallet store location.
func (w *Wallet) Path() string { return w.path }

// IsEncrypted reports whether a password protects the wallet.
func (w *Wallet) IsEncrypted() bool { return w.encrypted }

// IsEncryptedByDevice reports whether the wallet credential is derived from a
// hardware device session instead of being typed.
func (w *Wallet) IsEncryptedByDevice() bool { return w.deviceEncrypted }

// CheckPassword verifies the credential against the stored verifier. The
// wallet is left unmodified on mismatch.
func (w *Wallet) CheckPassword(secret []byte) error {
	if !w.encrypted {
		if len(secret) == 0 {
			return nil
		}
		return faults.InvalidPassword()
	}
	if verifierDigest(w.verifierSalt, secret) != w.verifierHash {
		return faults.InvalidPassword()
	}
	return nil
}

// SetPassword replaces the wallet password after verifying the old one.
func (w *Wallet) SetPassword(ctx context.Context, oldSecret, newSecret []byte) error {
	if err := w.CheckPassword(oldSecret); err != nil {
		return err
	}
	if len(newSecret) == 0 {
		if err := w.deleteMeta(ctx, metaVerifierSalt, metaVerifierHash); err != nil {
			return err
		}
		w.encrypted = false
		w.verifierSalt = ""
		w.verifierHash = ""
		return nil
	}
	salt := uuid.NewString()
	digest := verifierDigest(salt, newSecret)
	if err := w.setMeta(ctx, metaVerifierSalt, salt); err != nil {
		return err
	}
	if err := w.setMeta(ctx, metaVerifierHash, digest); err != nil {
		return err
	}
	w.encrypted = true
	w.verifierSalt = salt
	w.verifierHash = digest
	return nil
}

// Save flushes pending writes to the wallet file.
func (w *Wallet) Save(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint wallet: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (w *Wallet) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Wallet) loadMeta(ctx context.Context) error {
	rows, err := w.db.QueryContext(ctx, `SELECT key, value FROM wallet_meta`)
	if err != nil {
		return fmt.Errorf("read wallet metadata: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan wallet metadata: %w", err)
		}
		switch key {
		case metaWalletID:
			w.walletID = value
		case metaVerifierSalt:
			w.verifierSalt = value
		case metaVerifierHash:
			w.verifierHash = value
			w.encrypted = true
		case metaDeviceEncrypted:
			w.deviceEncrypted = value == "1"
		}
	}
	return rows.Err()
}

func (w *Wallet) setMeta(ctx context.Context, key, value string) error {
	_, err := w.db.ExecContext(ctx,
		`INSERT INTO wallet_meta (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write wallet metadata %q: %w", key, err)
	}
	return nil
}

func (w *Wallet) deleteMeta(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := w.db.ExecContext(ctx, `DELETE FROM wallet_meta WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete wallet metadata %q: %w", key, err)
		}
	}
	return nil
}

func (w *Wallet) seedAddresses(ctx context.Context) error {
	for i := 0; i < initialAddressCount; i++ {
		addr := deriveAddress(w.walletID, i)
		if _, err := w.db.ExecContext(ctx,
			`INSERT INTO addresses (address) VALUES (?)`, addr); err != nil {
			return fmt.Errorf("seed address %d: %w", i, err)
		}
	}
	return nil
}

func deriveAddress(walletID string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s/%d", walletID, index)))
	return "cfr1" + hex.EncodeToString(sum[:10])
}

// verifierDigest hashes the NFKD-normalized secret with the salt. Unicode
// normalization keeps passphrases portable across input methods.
func verifierDigest(salt string, secret []byte) string {
	normalized := norm.NFKD.Bytes(secret)
	h := sha256.New()
	h.Write([]byte(salt))
	h.Write([]byte{0})
	h.Write(normalized)
	return hex.EncodeToString(h.Sum(nil))
}
