//go:build windows

package procsys

import "errors"

type SelfDetacher struct{}

func (SelfDetacher) Detach(logPath string, args []string) (int, error) {
	return 0, errors.New("daemonization is not supported on windows")
}
