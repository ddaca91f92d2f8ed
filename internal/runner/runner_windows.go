//go:build windows

package runner

func setUmask() {}

func bindStdio(logPath string) error { return nil }
