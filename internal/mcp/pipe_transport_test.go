package mcp

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"
)

// pipeTransport drives a Client over an in-process io.Pipe pair instead of a
// real child process or HTTP connection, so tests can run a fakeserver.Serve
// loop on the other end without spawning anything. Mirrors stdioTransport's
// read/write shape, minus process management.
type pipeTransport struct {
	baseTransport
	r io.ReadCloser
	w io.WriteCloser

	writeMu  sync.Mutex
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newPipeTransport(r io.ReadCloser, w io.WriteCloser) *pipeTransport {
	return &pipeTransport{baseTransport: newBaseTransport(), r: r, w: w}
}

func (t *pipeTransport) Start(ctx context.Context) error {
	t.setState(StateConnected)
	t.wg.Add(1)
	go t.readLoop()
	return nil
}

func (t *pipeTransport) readLoop() {
	defer t.wg.Done()
	reader := bufio.NewReaderSize(t.r, 64*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			trimmed := line[:len(line)-1]
			if len(trimmed) > 0 && trimmed[len(trimmed)-1] == '\r' {
				trimmed = trimmed[:len(trimmed)-1]
			}
			if len(trimmed) > 0 {
				if !t.deliver(append([]byte(nil), trimmed...)) {
					return
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				t.finish(nil)
			} else {
				t.finish(err)
			}
			return
		}
	}
}

func (t *pipeTransport) Send(ctx context.Context, frame []byte, timeout time.Duration) error {
	if t.State() != StateConnected {
		return errInvalidState("pipe transport is " + t.State().String())
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.w.Write(frame); err != nil {
		return err
	}
	_, err := t.w.Write([]byte("\n"))
	return err
}

func (t *pipeTransport) Stop() error {
	t.stopOnce.Do(func() {
		t.setState(StateDisconnecting)
		_ = t.w.Close()
		_ = t.r.Close()
		t.wg.Wait()
		t.finish(nil)
	})
	return nil
}
