package swap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirmer blocks on operator approval before anything is sent on-chain.
// Tests inject a fake; the default reads y/N from stdin.
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// stdinConfirmer reads prompt answers line by line. The reader is built
// once so a later prompt sees input the previous read buffered.
type stdinConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdinConfirmer returns the interactive confirmer used by the CLI.
func NewStdinConfirmer() Confirmer {
	return &stdinConfirmer{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (c *stdinConfirmer) Confirm(message string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", message)

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
