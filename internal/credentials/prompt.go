package credentials

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// PasswordReader reads one password without echo. Implemented by the
// terminal for real use and by stubs in tests.
type PasswordReader interface {
	ReadPassword(prompt string) ([]byte, error)
}

// TerminalReader prompts on the controlling terminal.
type TerminalReader struct{}

// Interactive reports whether stdin is a terminal a prompt can use.
func Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (TerminalReader) ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return password, nil
}
