package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/reglet-dev/ankibridge/domain/ports"
)

var _ ports.Prompter = (*CliPrompter)(nil)

// CliPrompter implements ports.Prompter for CLI environments.
type CliPrompter struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

// NewCliPrompter creates a new CliPrompter.
func NewCliPrompter(in io.Reader, out io.Writer) *CliPrompter {
	return &CliPrompter{in: in, out: out, scanner: bufio.NewScanner(in)}
}

// IsInteractive checks if the input is a terminal.
func (p *CliPrompter) IsInteractive() bool {
	if f, ok := p.in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// PromptForPermission asks the user to grant a single permission.
// Anything other than y, yes, a or always is a denial.
func (p *CliPrompter) PromptForPermission(name, description string) (granted bool, always bool, err error) {
	_, _ = fmt.Fprintf(p.out, "Permission Request: %s\n", name)
	if description != "" {
		_, _ = fmt.Fprintf(p.out, "%s\n", description)
	}
	_, _ = fmt.Fprintf(p.out, "Allow? [y/n/always]: ")

	if p.scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
		case "y", "yes":
			return true, false, nil
		case "a", "always":
			return true, true, nil
		default:
			return false, false, nil
		}
	}
	if err := p.scanner.Err(); err != nil {
		return false, false, err
	}
	return false, false, io.EOF
}

// FormatNonInteractiveError explains how to grant name without a terminal.
func FormatNonInteractiveError(name, storePath string) error {
	return fmt.Errorf("permission %s is not granted and no terminal is attached; add it under 'granted' in %s", name, storePath)
}
