package device

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/MeKo-Tech/undertone/internal/acquire"
	"golang.org/x/term"
)

// ErrNotTerminal is returned by OpenTerminal for redirected input.
var ErrNotTerminal = errors.New("input is not a terminal")

const ctrlC = 0x03

var _ acquire.Input = (*KeyInput)(nil)

// KeyInput turns keypresses read from a stream into commands. A reader
// goroutine feeds a buffered channel so Poll never blocks.
type KeyInput struct {
	keys      chan rune
	done      chan struct{}
	closeOnce sync.Once
	restore   func() error
}

// NewKeyInput starts reading keys from r. The reader goroutine exits at
// EOF, on a read error, or once Close is called and the next key arrives.
func NewKeyInput(r io.Reader) *KeyInput {
	k := &KeyInput{
		keys: make(chan rune, 16),
		done: make(chan struct{}),
	}
	go k.read(bufio.NewReader(r))
	return k
}

// OpenTerminal switches f into raw mode so single keypresses arrive
// without Enter, and reads keys from it. Close restores the terminal.
func OpenTerminal(f *os.File) (*KeyInput, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	k := NewKeyInput(f)
	k.restore = func() error { return term.Restore(fd, state) }
	return k, nil
}

func (k *KeyInput) read(r *bufio.Reader) {
	for {
		ch, _, err := r.ReadRune()
		if err != nil {
			return
		}
		// Raw mode delivers Ctrl-C as a byte instead of a signal.
		if ch == ctrlC {
			ch = 'q'
		}
		select {
		case k.keys <- ch:
		case <-k.done:
			return
		}
	}
}

// Poll returns the command for the oldest unread key, or CommandNone.
func (k *KeyInput) Poll() acquire.Command {
	select {
	case ch := <-k.keys:
		return acquire.CommandForKey(ch)
	default:
		return acquire.CommandNone
	}
}

// Close stops delivering keys and restores the terminal state.
func (k *KeyInput) Close() error {
	var err error
	k.closeOnce.Do(func() {
		close(k.done)
		if k.restore != nil {
			err = k.restore()
		}
	})
	return err
}

// CRLF wraps w so that "\n" is written as "\r\n". Raw mode disables output
// post-processing, so text written while keys are being read needs it.
func CRLF(w io.Writer) io.Writer {
	return crlfWriter{w: w}
}

type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
