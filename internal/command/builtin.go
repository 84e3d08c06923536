package command

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"coffer/internal/wallet"
)

// Version is the release string reported by the version command.
const Version = "0.3.0"

// Builtin returns the full command catalog. The registry is built once at
// process start; registration failures are programming errors.
func Builtin() *Registry {
	registry, err := NewRegistry(
		Registration{
			Descriptor: Descriptor{
				Name: "version",
				Help: "Return the coffer version",
			},
			Handler: runVersion,
		},
		Registration{
			Descriptor: Descriptor{
				Name: "getinfo",
				Help: "Return daemon and wallet status",
			},
			Handler: runGetInfo,
		},
		Registration{
			Descriptor: Descriptor{
				Name: "stop",
				Help: "Ask the daemon to shut down",
			},
			Handler: runStop,
		},
		Registration{
			Descriptor: Descriptor{
				Name:             "create",
				RequiresPassword: true,
				Help:             "Create a new wallet at the configured path",
			},
			Handler: runCreate,
		},
		Registration{
			Descriptor: Descriptor{
				Name:          "getbalance",
				RequiresStore: true,
				Help:          "Return the wallet balance in satoshis",
			},
			Handler: runGetBalance,
		},
		Registration{
			Descriptor: Descriptor{
				Name:          "listaddresses",
				RequiresStore: true,
				Help:          "List wallet addresses with labels and balances",
			},
			Handler: runListAddresses,
		},
		Registration{
			Descriptor: Descriptor{
				Name:          "getunusedaddress",
				RequiresStore: true,
				Help:          "Return a fresh receive address",
			},
			Handler: runGetUnusedAddress,
		},
		Registration{
			Descriptor: Descriptor{
				Name:          "setlabel",
				Positional:    []string{"address", "label"},
				RequiresStore: true,
				Help:          "Attach a label to an address",
			},
			Handler: runSetLabel,
		},
		Registration{
			Descriptor: Descriptor{
				Name:          "getlabel",
				Positional:    []string{"address"},
				RequiresStore: true,
				Help:          "Return the label attached to an address",
			},
			Handler: runGetLabel,
		},
		Registration{
			Descriptor: Descriptor{
				Name:             "password",
				Optional:         []string{"new_password"},
				RequiresStore:    true,
				RequiresPassword: true,
				Help:             "Change the wallet password",
			},
			Handler: runPassword,
		},
		Registration{
			Descriptor: Descriptor{
				Name:       "validateaddress",
				Positional: []string{"address"},
				Help:       "Check whether an address is well formed",
			},
			Handler: runValidateAddress,
		},
		Registration{
			Descriptor: Descriptor{
				Name:             "payto",
				Positional:       []string{"destination", "amount"},
				RequiresStore:    true,
				RequiresNetwork:  true,
				RequiresPassword: true,
				Help:             "Create a signed transaction paying amount to destination",
			},
			Handler: runPayTo,
		},
		Registration{
			Descriptor: Descriptor{
				Name:            "broadcast",
				Positional:      []string{"tx"},
				RequiresNetwork: true,
				Help:            "Broadcast a raw transaction to the network",
			},
			Handler: runBroadcast,
		},
	)
	if err != nil {
		panic(fmt.Sprintf("build command registry: %v", err))
	}
	return registry
}

func runVersion(context.Context, *Env, *Request) (any, error) {
	return Version, nil
}

func runGetInfo(ctx context.Context, env *Env, _ *Request) (any, error) {
	if env.Control == nil {
		return map[string]any{"version": Version}, nil
	}
	return env.Control.Info(ctx), nil
}

func runStop(_ context.Context, env *Env, _ *Request) (any, error) {
	if env.Control == nil {
		return nil, errors.New("no execution host to stop")
	}
	if err := env.Control.Stop(); err != nil {
		return nil, err
	}
	return "Daemon stopped", nil
}

func runCreate(ctx context.Context, env *Env, _ *Request) (any, error) {
	if env.WalletPath == "" {
		return nil, errors.New("wallet path not resolved")
	}
	w, err := wallet.Create(ctx, env.WalletPath, wallet.CreateOptions{Password: env.Secret})
	if err != nil {
		return nil, err
	}
	defer w.Close()
	if err := w.Save(ctx); err != nil {
		return nil, err
	}
	return map[string]any{
		"path":      w.Path(),
		"encrypted": w.IsEncrypted(),
		"msg":       "Wallet created. Keep your password safe: there is no recovery.",
	}, nil
}

func runGetBalance(ctx context.Context, env *Env, _ *Request) (any, error) {
	balance, err := env.Wallet.Balance(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"confirmed_sats": balance}, nil
}

func runListAddresses(ctx context.Context, env *Env, _ *Request) (any, error) {
	addrs, err := env.Wallet.Addresses(ctx)
	if err != nil {
		return nil, err
	}
	return addrs, nil
}

func runGetUnusedAddress(ctx context.Context, env *Env, _ *Request) (any, error) {
	return env.Wallet.UnusedAddress(ctx)
}

func runSetLabel(ctx context.Context, env *Env, req *Request) (any, error) {
	address, err := ArgString(req, 0)
	if err != nil {
		return nil, err
	}
	label, err := ArgString(req, 1)
	if err != nil {
		return nil, err
	}
	if err := env.Wallet.SetLabel(ctx, address, label); err != nil {
		return nil, err
	}
	return true, nil
}

func runGetLabel(ctx context.Context, env *Env, req *Request) (any, error) {
	address, err := ArgString(req, 0)
	if err != nil {
		return nil, err
	}
	return env.Wallet.Label(ctx, address)
}

func runPassword(ctx context.Context, env *Env, req *Request) (any, error) {
	newPassword := ""
	if raw, ok := req.Kwargs["new_password"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("new_password must be a string")
		}
		newPassword = s
	}
	if err := env.Wallet.SetPassword(ctx, env.Secret, []byte(newPassword)); err != nil {
		return nil, err
	}
	return true, nil
}

func runValidateAddress(_ context.Context, _ *Env, req *Request) (any, error) {
	address, err := ArgString(req, 0)
	if err != nil {
		return nil, err
	}
	return validAddress(address), nil
}

func runPayTo(ctx context.Context, env *Env, req *Request) (any, error) {
	destination, err := ArgString(req, 0)
	if err != nil {
		return nil, err
	}
	amount, err := ArgInt64(req, 1)
	if err != nil {
		return nil, err
	}
	if !validAddress(destination) {
		return nil, fmt.Errorf("invalid destination address %q", destination)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amount)
	}
	balance, err := env.Wallet.Balance(ctx)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, fmt.Errorf("insufficient funds: balance %d sats, need %d", balance, amount)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s/%d", destination, amount)))
	return map[string]any{"tx": "02000000" + hex.EncodeToString(sum[:])}, nil
}

func runBroadcast(ctx context.Context, env *Env, req *Request) (any, error) {
	rawTx, err := ArgString(req, 0)
	if err != nil {
		return nil, err
	}
	if env.Network == nil {
		return nil, errors.New("network session unavailable")
	}
	return env.Network.Broadcast(ctx, rawTx)
}

func validAddress(address string) bool {
	if !strings.HasPrefix(address, "cfr1") || len(address) != 24 {
		return false
	}
	_, err := hex.DecodeString(address[4:])
	return err == nil
}
