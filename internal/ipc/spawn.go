package ipc

import (
	"fmt"
	"os"
	"os/exec"
)

// File descriptors the dashboard process inherits its link on.
const (
	dataFD = 3
	ctlFD  = 4
)

// SessionEnv names the environment variable carrying the link session id.
const SessionEnv = "SOLEONDASH_SESSION"

// Pipe returns a connected producer/consumer pair within one process.
func Pipe() (*Producer, *Consumer, error) {
	dr, dw, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("data pipe: %w", err)
	}
	cr, cw, err := os.Pipe()
	if err != nil {
		dr.Close()
		dw.Close()
		return nil, nil, fmt.Errorf("control pipe: %w", err)
	}
	return NewProducer(dw, cr), NewConsumer(dr, cw), nil
}

// Spawn starts cmd as the dashboard process with the consumer end of a new
// link inherited on fds 3 and 4, and returns the producer end. The caller
// owns cmd and must Wait on it.
func Spawn(cmd *exec.Cmd, session string) (*Producer, error) {
	dr, dw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("data pipe: %w", err)
	}
	cr, cw, err := os.Pipe()
	if err != nil {
		dr.Close()
		dw.Close()
		return nil, fmt.Errorf("control pipe: %w", err)
	}

	// ExtraFiles[i] becomes fd 3+i in the child.
	cmd.ExtraFiles = append(cmd.ExtraFiles[:0], dr, cw)
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.Env = append(cmd.Env, SessionEnv+"="+session)

	if err := cmd.Start(); err != nil {
		dr.Close()
		dw.Close()
		cr.Close()
		cw.Close()
		return nil, fmt.Errorf("start dashboard: %w", err)
	}
	// The child holds its own copies now.
	dr.Close()
	cw.Close()
	return NewProducer(dw, cr), nil
}
