//go:build windows

package xmem

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/tesvault/bsarc/errs"
)

// proxyName is the helper binary expected next to the host executable.
const proxyName = "xmem.exe"

func spawn() (*Proxy, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnsupportedCodec, err)
	}

	path := filepath.Join(filepath.Dir(self), proxyName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s missing", errs.ErrUnsupportedCodec, proxyName)
	}

	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnsupportedCodec, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnsupportedCodec, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnsupportedCodec, err)
	}

	return &Proxy{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}
