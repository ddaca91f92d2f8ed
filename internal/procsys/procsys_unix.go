//go:build !windows

package procsys

import (
	"errors"
	"syscall"
)

// OS is the real backend: signal 0 probes and kill(2) to the group.
type OS struct{}

func (OS) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

func (OS) SignalGroup(pid int, sig Signal) error {
	if pid <= 0 {
		return nil
	}
	err := syscall.Kill(-pid, mapSignal(sig))
	if errors.Is(err, syscall.ESRCH) {
		// Group already gone; the caller re-checks status anyway.
		return nil
	}
	return err
}

func mapSignal(sig Signal) syscall.Signal {
	switch sig {
	case Interrupt:
		return syscall.SIGINT
	case Kill:
		return syscall.SIGKILL
	default:
		return syscall.SIGTERM
	}
}
