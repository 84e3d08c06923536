package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"coffer/internal/faults"
)

const (
	lockName   = "cofferd.lock"
	handleName = "cofferd.json"
)

// Handle records a running daemon: its process identity, IPC endpoint, and
// the access token the parent generated before spawning it.
type Handle struct {
	PID       int       `json:"pid"`
	Endpoint  string    `json:"endpoint"`
	Token     string    `json:"token"`
	StartedAt time.Time `json:"started_at"`
	Ready     bool      `json:"ready"`
}

// Claim is held by the process that owns the configuration root. Releasing it
// removes the handle marker and drops the lock.
type Claim struct {
	lock       *flock.Flock
	handlePath string
}

// Manager resolves daemon ownership for one configuration root.
type Manager struct {
	root       string
	lockPath   string
	handlePath string
}

// New returns a manager for the given configuration root directory.
func New(root string) *Manager {
	return &Manager{
		root:       root,
		lockPath:   filepath.Join(root, lockName),
		handlePath: filepath.Join(root, handleName),
	}
}

// HandlePath returns the handle marker location.
func (m *Manager) HandlePath() string { return m.handlePath }

// TryClaim attempts to take ownership of the configuration root. On success
// it returns a live Claim and a nil handle. When another live process owns the
// root it returns the owner's handle; callers treat that as the AlreadyRunning
// control signal, not a fault.
func (m *Manager) TryClaim() (*Claim, *Handle, error) {
	if err := os.MkdirAll(m.root, 0o700); err != nil {
		return nil, nil, faults.StorageUnavailable(err)
	}

	lock := flock.New(m.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, nil, faults.StorageUnavailable(err)
	}
	if !ok {
		// The lock is held, so the owner is alive: flock drops with the
		// owning process. Read its handle for the endpoint.
		handle, readErr := m.readHandle()
		if readErr != nil {
			handle = nil
		}
		return nil, handle, nil
	}

	// The flock was free, so any leftover handle belongs to a dead owner.
	if err := os.Remove(m.handlePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_ = lock.Unlock()
		return nil, nil, faults.StorageUnavailable(err)
	}
	return &Claim{lock: lock, handlePath: m.handlePath}, nil, nil
}

// Publish writes the daemon handle marker. Call it only after the IPC
// endpoint is listening; Ready is forced true.
func (c *Claim) Publish(handle Handle) error {
	handle.Ready = true
	if handle.StartedAt.IsZero() {
		handle.StartedAt = time.Now().UTC()
	}
	data, err := json.Marshal(handle)
	if err != nil {
		return fmt.Errorf("encode daemon handle: %w", err)
	}
	tmp := c.handlePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write daemon handle: %w", err)
	}
	if err := os.Rename(tmp, c.handlePath); err != nil {
		return fmt.Errorf("publish daemon handle: %w", err)
	}
	return nil
}

// Release removes the handle marker and drops the lock.
func (c *Claim) Release() error {
	if c == nil {
		return nil
	}
	if err := os.Remove(c.handlePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove daemon handle: %w", err)
	}
	if c.lock != nil {
		return c.lock.Unlock()
	}
	return nil
}

// Probe reports the current daemon handle, or nil when no live daemon owns
// the root. A handle whose owner is not alive is treated as absent.
func (m *Manager) Probe() (*Handle, error) {
	handle, err := m.readHandle()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if !processAlive(handle.PID) {
		return nil, nil
	}
	return handle, nil
}

// RemoveStaleHandle deletes the handle marker when its owner is gone. Used by
// `coffer stop` to clean up after a crashed daemon. It reports whether a
// marker was actually removed.
func (m *Manager) RemoveStaleHandle() (bool, error) {
	handle, err := m.readHandle()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if processAlive(handle.PID) {
		return false, fmt.Errorf("daemon pid %d is still alive", handle.PID)
	}
	if err := os.Remove(m.handlePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return true, nil
}

func (m *Manager) readHandle() (*Handle, error) {
	data, err := os.ReadFile(m.handlePath)
	if err != nil {
		return nil, err
	}
	var handle Handle
	if err := json.Unmarshal(data, &handle); err != nil {
		return nil, fmt.Errorf("decode daemon handle: %w", err)
	}
	return &handle, nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to another user.
	return errors.Is(err, unix.EPERM)
}
