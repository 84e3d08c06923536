package faults

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// Kind classifies how a fault should be reported.
type Kind int

const (
	// KindControl marks expected outcomes that steer control flow.
	KindControl Kind = iota
	// KindUserFacing marks faults reported with a short message only.
	KindUserFacing
	// KindInternal marks unexpected failures carrying diagnostics.
	KindInternal
)

// Stable fault codes. These travel over the wire and must not change.
const (
	CodeAlreadyRunning         = "ALREADY_RUNNING"
	CodeCancelled              = "CANCELLED"
	CodeInvalidPassword        = "INVALID_PASSWORD"
	CodePasswordMismatch       = "PASSWORD_MISMATCH"
	CodeStoreNotFound          = "STORE_NOT_FOUND"
	CodeNoStorePath            = "NO_STORE_PATH"
	CodeNoDeviceFound          = "NO_DEVICE_FOUND"
	CodeDaemonNotRunning       = "DAEMON_NOT_RUNNING"
	CodeOfflineNetworkRequired = "OFFLINE_NETWORK_REQUIRED"
	CodeUnknownCommand         = "UNKNOWN_COMMAND"
	CodeBadArguments           = "BAD_ARGUMENTS"
	CodeTimeout                = "TIMEOUT"
	CodeStorageUnavailable     = "STORAGE_UNAVAILABLE"
	CodeInternal               = "INTERNAL"
)

// Fault is a classified error. The zero value is not valid; use the
// constructors below.
type Fault struct {
	Code    string
	Kind    Kind
	Message string
	// Data carries machine-readable diagnostics, surfaced separately from
	// Message so callers can log detail without polluting primary output.
	Data map[string]any

	wrapped error
}

func (f *Fault) Error() string { return f.Message }

func (f *Fault) Unwrap() error { return f.wrapped }

// Category returns the wire-level category string for the fault.
func (f *Fault) Category() string {
	switch f.Kind {
	case KindControl:
		return "CONTROL"
	case KindUserFacing:
		return "USERFACING"
	default:
		return "INTERNAL"
	}
}

// New constructs a fault with an explicit code and kind.
func New(code string, kind Kind, format string, args ...any) *Fault {
	return &Fault{Code: code, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func AlreadyRunning(endpoint string) *Fault {
	f := New(CodeAlreadyRunning, KindControl, "daemon already running")
	if endpoint != "" {
		f.Data = map[string]any{"endpoint": endpoint}
	}
	return f
}

func Cancelled() *Fault {
	return New(CodeCancelled, KindControl, "cancelled")
}

func InvalidPassword() *Fault {
	return New(CodeInvalidPassword, KindUserFacing, "incorrect password")
}

func PasswordMismatch() *Fault {
	return New(CodePasswordMismatch, KindUserFacing, "passwords do not match")
}

func StoreNotFound(path string) *Fault {
	return New(CodeStoreNotFound, KindUserFacing,
		"wallet not found at %s; run `coffer create -w %s` to create one", path, path)
}

func NoStorePath() *Fault {
	return New(CodeNoStorePath, KindUserFacing,
		"no wallet path configured; pass -w or set wallet_path in the config")
}

func NoDeviceFound() *Fault {
	return New(CodeNoDeviceFound, KindUserFacing,
		"wallet is bound to a hardware device but none is connected")
}

func DaemonNotRunning() *Fault {
	return New(CodeDaemonNotRunning, KindUserFacing,
		"daemon not running; start it with `coffer daemon -d` or pass --offline")
}

func OfflineNetworkRequired(command string) *Fault {
	return New(CodeOfflineNetworkRequired, KindUserFacing,
		"command %q requires the network and cannot run offline", command)
}

func UnknownCommand(name string) *Fault {
	return New(CodeUnknownCommand, KindUserFacing, "unknown command %q", name)
}

func Timeout(after time.Duration) *Fault {
	return New(CodeTimeout, KindUserFacing, "daemon did not respond within %s", after)
}

func StorageUnavailable(err error) *Fault {
	f := New(CodeStorageUnavailable, KindUserFacing, "lock directory not writable: %v", err)
	f.wrapped = err
	return f
}

// Internal wraps an unexpected failure, capturing the current stack as the
// diagnostic payload.
func Internal(err error) *Fault {
	if err == nil {
		err = errors.New("unknown internal error")
	}
	return &Fault{
		Code:    CodeInternal,
		Kind:    KindInternal,
		Message: err.Error(),
		Data:    map[string]any{"traceback": string(debug.Stack())},
		wrapped: err,
	}
}

// As extracts a *Fault from err's chain.
func As(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Is reports whether err carries the given fault code.
func Is(err error, code string) bool {
	if f, ok := As(err); ok {
		return f.Code == code
	}
	return false
}

// Ensure converts any error into a fault, passing faults through unchanged
// and classifying everything else as internal.
func Ensure(err error) *Fault {
	if err == nil {
		return nil
	}
	if f, ok := As(err); ok {
		return f
	}
	return Internal(err)
}
