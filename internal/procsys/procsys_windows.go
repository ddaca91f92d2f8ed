//go:build windows

package procsys

import (
	"errors"
	"os"
	"syscall"
)

// OS is a reduced backend for Windows: no process groups or signal
// escalation, only existence checks and Kill.
type OS struct{}

func (OS) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}

func (OS) SignalGroup(pid int, sig Signal) error {
	if pid <= 0 {
		return nil
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if sig == Kill {
		return p.Kill()
	}
	return errors.New("signal delivery not supported on windows")
}
