package host

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/google/uuid"

	"soleondash/internal/ipc"
)

// Child is a running dashboard process and the producer end of its link.
type Child struct {
	Session string
	Link    *ipc.Producer
	cmd     *exec.Cmd
}

// ChildOptions configures the dashboard process.
type ChildOptions struct {
	Path   string   // executable, defaults to the running binary
	Args   []string // arguments after the executable
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StartDashboard spawns the dashboard process on the host terminal with a
// fresh session id.
func StartDashboard(opts ChildOptions) (*Child, error) {
	path := opts.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		path = exe
	}
	cmd := exec.Command(path, opts.Args...)
	cmd.Stdin = orDefault(opts.Stdin, os.Stdin)
	cmd.Stdout = orDefaultW(opts.Stdout, os.Stdout)
	cmd.Stderr = orDefaultW(opts.Stderr, os.Stderr)

	session := uuid.NewString()
	link, err := ipc.Spawn(cmd, session)
	if err != nil {
		return nil, err
	}
	return &Child{Session: session, Link: link, cmd: cmd}, nil
}

// Wait waits for the dashboard process to exit.
func (c *Child) Wait() error {
	if err := c.cmd.Wait(); err != nil {
		return fmt.Errorf("dashboard exited: %w", err)
	}
	return nil
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orDefaultW(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
