package ipc

import (
	"coffer/internal/faults"
)

// RunRequest dispatches one command to the daemon.
type RunRequest struct {
	// Token authenticates the caller; it was generated by the process that
	// spawned the daemon and recorded in the lock handle.
	Token string `json:"token"`

	Command string         `json:"command"`
	Args    []any          `json:"args"`
	Kwargs  map[string]any `json:"kwargs,omitempty"`
	WorkDir string         `json:"workdir,omitempty"`

	// WalletPath and Password carry per-invocation store context from the
	// foreground process (-w and password flags).
	WalletPath string `json:"wallet_path,omitempty"`
	Password   string `json:"password,omitempty"`
}

// WireError is the envelope form of a fault.
type WireError struct {
	Code     string         `json:"code"`
	Category string         `json:"category"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data,omitempty"`
}

// RunResponse carries either a success result or a wire error, never both.
type RunResponse struct {
	Result any        `json:"result,omitempty"`
	Error  *WireError `json:"error,omitempty"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct {
	Token string `json:"token"`
}

// StatusResponse reports daemon runtime information.
type StatusResponse struct {
	Running bool           `json:"running"`
	PID     int            `json:"pid"`
	Info    map[string]any `json:"info,omitempty"`
}

// FromFault converts a fault to its wire form.
func FromFault(f *faults.Fault) *WireError {
	if f == nil {
		return nil
	}
	return &WireError{
		Code:     f.Code,
		Category: f.Category(),
		Message:  f.Message,
		Data:     f.Data,
	}
}

// Fault converts a wire error back into a fault for re-raising.
func (e *WireError) Fault() *faults.Fault {
	if e == nil {
		return nil
	}
	kind := faults.KindUserFacing
	switch e.Category {
	case "CONTROL":
		kind = faults.KindControl
	case "INTERNAL":
		kind = faults.KindInternal
	}
	f := faults.New(e.Code, kind, "%s", e.Message)
	f.Data = e.Data
	return f
}
