//go:build unix

package ipc

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// OpenInherited opens the consumer end passed down by Spawn.
func OpenInherited() (*Consumer, string, error) {
	data, err := inherited(dataFD, "soleondash-data")
	if err != nil {
		return nil, "", fmt.Errorf("data link: %w", err)
	}
	ctl, err := inherited(ctlFD, "soleondash-ctl")
	if err != nil {
		data.Close()
		return nil, "", fmt.Errorf("control link: %w", err)
	}
	return NewConsumer(data, ctl), os.Getenv(SessionEnv), nil
}

// inherited wraps fd as a pollable file so Close interrupts pending reads.
func inherited(fd int, name string) (*os.File, error) {
	if err := syscall.SetNonblock(fd, true); err != nil {
		return nil, err
	}
	f := os.NewFile(uintptr(fd), name)
	if f == nil {
		return nil, errors.New("no dashboard link inherited")
	}
	if _, err := f.Stat(); err != nil {
		return nil, err
	}
	return f, nil
}
