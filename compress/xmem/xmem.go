// Package xmem speaks the request/response protocol of the external XMEM
// proxy, the 32-bit helper process that provides the LZX codec.
//
// The proxy is a process-wide singleton: it is spawned lazily on first
// use behind a mutex and torn down deterministically by Shutdown. Every
// request is answered synchronously; a proxy that stops answering is
// killed and the call fails with errs.ErrCodecTimeout. Only the protocol
// lives here; how the proxy implements LZX is its own business. Spawning
// is only possible on Windows; elsewhere every call fails with
// errs.ErrUnsupportedCodec.
package xmem

import (
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/tesvault/bsarc/errs"
)

// Request tags, one u32 on the wire ahead of the payload.
const (
	requestExit uint32 = iota
	requestCompress
	requestCompressBound
	requestDecompress
)

// requestTimeout bounds how long a single proxy round-trip may take.
const requestTimeout = 30 * time.Second

// Proxy is a handle to a running XMEM helper process.
type Proxy struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

var (
	defaultMu    sync.Mutex
	defaultProxy *Proxy
)

// Default returns the process-wide proxy, spawning it on first use. A
// helper that was killed after wedging is respawned here.
func Default() (*Proxy, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultProxy == nil || !defaultProxy.alive() {
		p, err := spawn()
		if err != nil {
			return nil, err
		}
		defaultProxy = p
	}

	return defaultProxy, nil
}

// Shutdown stops the process-wide proxy, if one is running. It is safe
// to call at any time; the next use respawns the helper.
func Shutdown() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultProxy != nil {
		defaultProxy.Close()
		defaultProxy = nil
	}
}

func (p *Proxy) alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cmd != nil
}

// Compress asks the proxy to LZX-compress data.
func (p *Proxy) Compress(data []byte) ([]byte, error) {
	bound, err := p.CompressBound(data)
	if err != nil {
		return nil, err
	}

	var req []byte
	req = binary.LittleEndian.AppendUint32(req, requestCompress)
	req = binary.LittleEndian.AppendUint32(req, bound)
	req = appendBlob(req, data)

	resp, err := p.roundTrip(req, true)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// CompressBound asks the proxy for the worst-case compressed size of
// data.
func (p *Proxy) CompressBound(data []byte) (uint32, error) {
	var req []byte
	req = binary.LittleEndian.AppendUint32(req, requestCompressBound)
	req = appendBlob(req, data)

	resp, err := p.roundTrip(req, false)
	if err != nil {
		return 0, err
	}
	if len(resp) != 4 {
		return 0, fmt.Errorf("%w: short bound response", errs.ErrCompression)
	}

	return binary.LittleEndian.Uint32(resp), nil
}

// Decompress asks the proxy to LZX-decompress data into originalSize
// bytes.
func (p *Proxy) Decompress(data []byte, originalSize int) ([]byte, error) {
	var req []byte
	req = binary.LittleEndian.AppendUint32(req, requestDecompress)
	req = binary.LittleEndian.AppendUint32(req, uint32(originalSize))
	req = appendBlob(req, data)

	resp, err := p.roundTrip(req, true)
	if err != nil {
		return nil, err
	}
	if len(resp) != originalSize {
		return nil, errs.ErrSizeMismatch
	}

	return resp, nil
}

// Close sends the exit request and reaps the helper.
func (p *Proxy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return
	}

	var req [4]byte
	binary.LittleEndian.PutUint32(req[:], requestExit)
	p.stdin.Write(req[:]) //nolint:errcheck // best effort before the kill below
	p.stdin.Close()

	done := make(chan struct{})
	go func() {
		p.cmd.Wait() //nolint:errcheck
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		p.cmd.Process.Kill() //nolint:errcheck
		<-done
	}
	p.cmd = nil
}

// roundTrip sends one request and reads the u32 error code plus either a
// length-prefixed blob (blob true) or a fixed u32 payload.
func (p *Proxy) roundTrip(req []byte, blob bool) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return nil, errs.ErrUnsupportedCodec
	}

	type result struct {
		payload []byte
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		payload, err := p.exchange(req, blob)
		ch <- result{payload, err}
	}()

	select {
	case res := <-ch:
		return res.payload, res.err
	case <-time.After(requestTimeout):
		// The helper wedged; kill it so the next call respawns cleanly.
		p.cmd.Process.Kill() //nolint:errcheck
		p.cmd.Wait()         //nolint:errcheck
		p.cmd = nil

		return nil, errs.ErrCodecTimeout
	}
}

func (p *Proxy) exchange(req []byte, blob bool) ([]byte, error) {
	if _, err := p.stdin.Write(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}

	var head [4]byte
	if _, err := io.ReadFull(p.stdout, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}
	if code := binary.LittleEndian.Uint32(head[:]); code != 0 {
		return nil, fmt.Errorf("%w: proxy error %d", errs.ErrCompression, code)
	}

	if !blob {
		payload := make([]byte, 4)
		if _, err := io.ReadFull(p.stdout, payload); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
		}

		return payload, nil
	}

	if _, err := io.ReadFull(p.stdout, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}
	payload := make([]byte, binary.LittleEndian.Uint32(head[:]))
	if _, err := io.ReadFull(p.stdout, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}

	return payload, nil
}

func appendBlob(dst, data []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(data)))
	return append(dst, data...)
}
