package credentials

import (
	"github.com/awnumar/memguard"

	"golang.org/x/text/unicode/norm"
)

// Secret is an in-memory wallet credential held in a locked buffer. The zero
// credential (no password) is represented by a nil *Secret.
type Secret struct {
	buf *memguard.LockedBuffer
}

// NewSecret seals the given bytes into locked memory. The source slice is
// wiped. Empty input normalizes to "no password" and returns nil.
func NewSecret(b []byte) *Secret {
	if len(b) == 0 {
		return nil
	}
	return &Secret{buf: memguard.NewBufferFromBytes(b)}
}

// NewSecretFromString seals a typed or configured password. The password is
// NFKD-normalized so the same passphrase verifies identically regardless of
// input method.
func NewSecretFromString(s string) *Secret {
	if s == "" {
		return nil
	}
	return NewSecret([]byte(norm.NFKD.String(s)))
}

// Bytes exposes the secret for verification. The returned slice aliases the
// locked buffer; do not retain it beyond the call.
func (s *Secret) Bytes() []byte {
	if s == nil || s.buf == nil {
		return nil
	}
	return s.buf.Bytes()
}

// Destroy wipes and releases the locked buffer. Safe on nil.
func (s *Secret) Destroy() {
	if s == nil || s.buf == nil {
		return
	}
	s.buf.Destroy()
	s.buf = nil
}
