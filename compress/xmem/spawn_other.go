//go:build !windows

package xmem

import "github.com/tesvault/bsarc/errs"

func spawn() (*Proxy, error) {
	return nil, errs.ErrUnsupportedCodec
}
