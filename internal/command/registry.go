package command

import (
	"context"
	"fmt"
	"sort"

	"coffer/internal/faults"
	"coffer/internal/wallet"
)

// Descriptor is the immutable metadata for one command.
type Descriptor struct {
	Name             string
	Positional       []string
	Optional         []string
	RequiresStore    bool
	RequiresNetwork  bool
	RequiresPassword bool
	Help             string
}

// Request is the envelope a single execution consumes: the command name,
// positional values already JSON-decoded, keyword values, and the caller's
// working directory.
type Request struct {
	Command string         `json:"command"`
	Args    []any          `json:"args"`
	Kwargs  map[string]any `json:"kwargs,omitempty"`
	WorkDir string         `json:"workdir,omitempty"`
}

// Network is the narrow collaborator for commands that reach remote peers.
type Network interface {
	Broadcast(ctx context.Context, rawTx string) (string, error)
}

// Control exposes the execution host (daemon or offline process) to command
// bodies that need it.
type Control interface {
	Info(ctx context.Context) map[string]any
	// Stop asks the host to shut down. Hosts without a daemon return a
	// user-facing error.
	Stop() error
}

// Env is everything a handler may touch during one execution. Fields are nil
// when the corresponding capability flag is unset.
type Env struct {
	Wallet  *wallet.Wallet
	Secret  []byte
	Network Network
	Control Control
	// WalletPath is the resolved store location, set even when the wallet
	// does not exist yet (the create command needs it).
	WalletPath string
}

// Handler executes one command and returns a JSON-encodable result.
type Handler func(ctx context.Context, env *Env, req *Request) (any, error)

// Registration couples a descriptor with its handler.
type Registration struct {
	Descriptor
	Handler Handler
}

// Registry maps command names to registrations. Read-only after construction.
type Registry struct {
	byName map[string]*Registration
}

// NewRegistry validates and indexes the given registrations.
func NewRegistry(regs ...Registration) (*Registry, error) {
	byName := make(map[string]*Registration, len(regs))
	for i := range regs {
		reg := regs[i]
		if reg.Name == "" {
			return nil, fmt.Errorf("command registration %d has no name", i)
		}
		if reg.Handler == nil {
			return nil, fmt.Errorf("command %q has no handler", reg.Name)
		}
		if _, exists := byName[reg.Name]; exists {
			return nil, fmt.Errorf("command %q registered twice", reg.Name)
		}
		byName[reg.Name] = &reg
	}
	return &Registry{byName: byName}, nil
}

// Lookup resolves a command by name, failing with UnknownCommand.
func (r *Registry) Lookup(name string) (*Registration, error) {
	reg, ok := r.byName[name]
	if !ok {
		return nil, faults.UnknownCommand(name)
	}
	return reg, nil
}

// Descriptors returns all descriptors sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.byName))
	for _, reg := range r.byName {
		out = append(out, reg.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ValidateArity checks the positional argument count against the descriptor.
func (d Descriptor) ValidateArity(args []any) error {
	if len(args) != len(d.Positional) {
		return faults.New(faults.CodeBadArguments, faults.KindUserFacing,
			"command %q takes %d argument(s) (%v), got %d",
			d.Name, len(d.Positional), d.Positional, len(args))
	}
	return nil
}
