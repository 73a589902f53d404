package classify

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal reports whether stdout is attached to a terminal rather
// than a pipe or CI log. Progress lines are printed only in that case.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
