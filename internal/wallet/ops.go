package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Address is one receive address with its label and balance.
type Address struct {
	Address string `json:"address"`
	Label   string `json:"label,omitempty"`
	Amount  int64  `json:"amount_sats"`
	Used    bool   `json:"used"`
}

// Balance returns the total of all address balances in satoshis.
func (w *Wallet) Balance(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	err := w.db.QueryRowContext(ctx, `SELECT SUM(amount_sats) FROM addresses`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum balances: %w", err)
	}
	return total.Int64, nil
}

// Addresses lists every address in insertion order.
func (w *Wallet) Addresses(ctx context.Context) ([]Address, error) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT address, label, amount_sats, used FROM addresses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		var addr Address
		var used int
		if err := rows.Scan(&addr.Address, &addr.Label, &addr.Amount, &used); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addr.Used = used != 0
		out = append(out, addr)
	}
	return out, rows.Err()
}

// UnusedAddress returns the first address not yet handed out and marks it
// used.
func (w *Wallet) UnusedAddress(ctx context.Context) (string, error) {
	var addr string
	err := w.db.QueryRowContext(ctx,
		`SELECT address FROM addresses WHERE used = 0 ORDER BY id LIMIT 1`).Scan(&addr)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("wallet has no unused addresses")
	}
	if err != nil {
		return "", fmt.Errorf("find unused address: %w", err)
	}
	if _, err := w.db.ExecContext(ctx,
		`UPDATE addresses SET used = 1 WHERE address = ?`, addr); err != nil {
		return "", fmt.Errorf("mark address used: %w", err)
	}
	return addr, nil
}

// SetLabel attaches a label to an address.
func (w *Wallet) SetLabel(ctx context.Context, address, label string) error {
	res, err := w.db.ExecContext(ctx,
		`UPDATE addresses SET label = ? WHERE address = ?`, label, address)
	if err != nil {
		return fmt.Errorf("set label: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set label: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("address %s not found in wallet", address)
	}
	return nil
}

// Label returns the label attached to an address, empty when unset.
func (w *Wallet) Label(ctx context.Context, address string) (string, error) {
	var label string
	err := w.db.QueryRowContext(ctx,
		`SELECT label FROM addresses WHERE address = ?`, address).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("address %s not found in wallet", address)
	}
	if err != nil {
		return "", fmt.Errorf("read label: %w", err)
	}
	return label, nil
}

// Credit adds funds to an address. Exists so tests and local tooling can set
// up balances; real funding arrives through network sync, which is outside
// this core.
func (w *Wallet) Credit(ctx context.Context, address string, amount int64) error {
	res, err := w.db.ExecContext(ctx,
		`UPDATE addresses SET amount_sats = amount_sats + ? WHERE address = ?`, amount, address)
	if err != nil {
		return fmt.Errorf("credit address: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit address: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("address %s not found in wallet", address)
	}
	return nil
}
