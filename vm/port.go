package vm

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ---------------------------------------------------------------------------
// Port: scheme I/O channels
// ---------------------------------------------------------------------------
//
// Three kinds of port wrap the host streams: standard (process stdio),
// file (path and mode) and string (in-memory). Each port carries input,
// output and binary flags. The reader drives an input port through
// PeekRune/ReadRune/UnreadRune and observes the eof and fail states
// directly; writes fail with a PortError carrying the sub-reason.

// PortKind identifies the backing stream of a port.
type PortKind uint8

const (
	StandardPort PortKind = iota
	FilePort
	StringPort
)

// Mode flags for opening ports.
type Mode uint8

const (
	ModeIn Mode = 1 << iota
	ModeOut
	ModeBinary
)

// Port is the scheme I/O channel façade.
type Port struct {
	kind PortKind
	mode Mode

	br   *bufio.Reader
	bw   *bufio.Writer
	file *os.File        // file ports only
	out  *strings.Builder // output string ports only

	eof    bool
	fail   bool
	closed bool
}

// NewStandardInput wraps process stdin as an input port.
func NewStandardInput() *Port {
	return &Port{
		kind: StandardPort,
		mode: ModeIn,
		br:   bufio.NewReader(os.Stdin),
	}
}

// NewStandardOutput wraps process stdout as an output port.
func NewStandardOutput() *Port {
	return &Port{
		kind: StandardPort,
		mode: ModeOut,
		bw:   bufio.NewWriter(os.Stdout),
	}
}

// OpenFile opens a file port with the given mode.
func OpenFile(path string, mode Mode) (*Port, error) {
	flag := 0
	switch {
	case mode&ModeIn != 0 && mode&ModeOut != 0:
		flag = os.O_RDWR | os.O_CREATE
	case mode&ModeOut != 0:
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	default:
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		if mode&ModeIn != 0 {
			return nil, &PortError{Dir: PortInput, Reason: PortIOFailed}
		}
		return nil, &PortError{Dir: PortOutput, Reason: PortIOFailed}
	}
	p := &Port{kind: FilePort, mode: mode, file: f}
	if mode&ModeIn != 0 {
		p.br = bufio.NewReader(f)
	}
	if mode&ModeOut != 0 {
		p.bw = bufio.NewWriter(f)
	}
	return p, nil
}

// NewInputString creates an input string port over the argument text.
func NewInputString(s string) *Port {
	return &Port{
		kind: StringPort,
		mode: ModeIn,
		br:   bufio.NewReader(strings.NewReader(s)),
	}
}

// NewOutputString creates an in-memory output string port.
func NewOutputString() *Port {
	var sb strings.Builder
	return &Port{
		kind: StringPort,
		mode: ModeOut,
		out:  &sb,
		bw:   bufio.NewWriter(&sb),
	}
}

// Kind returns the backing stream kind.
func (p *Port) Kind() PortKind { return p.kind }

func (p *Port) IsInput() bool  { return p.mode&ModeIn != 0 }
func (p *Port) IsOutput() bool { return p.mode&ModeOut != 0 }
func (p *Port) IsBinary() bool { return p.mode&ModeBinary != 0 }

// Eof reports whether the port has hit end of input.
func (p *Port) Eof() bool { return p.eof }

// Fail reports whether the last operation failed for a non-EOF reason.
func (p *Port) Fail() bool { return p.fail }

// Good reports a usable stream state.
func (p *Port) Good() bool { return !p.eof && !p.fail && !p.closed }

// ClearError resets the eof and fail states, like clearing an iostream.
func (p *Port) ClearError() {
	if !p.closed {
		p.eof = false
		p.fail = false
	}
}

// ---------------------------------------------------------------------------
// Input
// ---------------------------------------------------------------------------

// ReadRune consumes one character. At end of input it sets the eof state
// and returns EOFRune; any other failure sets the fail state.
func (p *Port) ReadRune() rune {
	if !p.IsInput() || p.closed {
		p.fail = true
		return EOFRune
	}
	r, _, err := p.br.ReadRune()
	if err != nil {
		if err == io.EOF {
			p.eof = true
		} else {
			p.fail = true
		}
		return EOFRune
	}
	return r
}

// PeekRune returns the next character without consuming it, or EOFRune.
func (p *Port) PeekRune() rune {
	if !p.IsInput() || p.closed {
		return EOFRune
	}
	r, _, err := p.br.ReadRune()
	if err != nil {
		return EOFRune
	}
	if err := p.br.UnreadRune(); err != nil {
		p.fail = true
	}
	return r
}

// UnreadRune pushes the last read character back onto the stream.
func (p *Port) UnreadRune() {
	if p.br == nil || p.eof {
		return
	}
	_ = p.br.UnreadRune()
}

// ReadLine consumes characters through the next newline and returns the
// line without its terminator.
func (p *Port) ReadLine() (string, error) {
	if !p.IsInput() || p.closed {
		return "", &PortError{Dir: PortInput, Reason: PortWrongDirection}
	}
	line, err := p.br.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			p.eof = true
			return "", &PortError{Dir: PortInput, Reason: PortEndOfFile}
		}
		p.fail = true
		return "", &PortError{Dir: PortInput, Reason: PortIOFailed}
	}
	return strings.TrimRight(line, "\n"), nil
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

// WriteString writes text to the port.
func (p *Port) WriteString(s string) error {
	if !p.IsOutput() {
		return &PortError{Dir: PortOutput, Reason: PortWrongDirection}
	}
	if p.closed {
		return &PortError{Dir: PortOutput, Reason: PortEndOfFile}
	}
	if _, err := p.bw.WriteString(s); err != nil {
		p.fail = true
		return &PortError{Dir: PortOutput, Reason: PortIOFailed}
	}
	return nil
}

// Flush forces buffered output to the backing stream.
func (p *Port) Flush() error {
	if p.bw == nil {
		return nil
	}
	if err := p.bw.Flush(); err != nil {
		p.fail = true
		return &PortError{Dir: PortOutput, Reason: PortIOFailed}
	}
	return nil
}

// Str returns the accumulated contents of an output string port.
func (p *Port) Str() string {
	if p.out == nil {
		return ""
	}
	_ = p.Flush()
	return p.out.String()
}

// Close flushes and marks the port EOF. Closing twice is idempotent.
func (p *Port) Close() error {
	if p.closed {
		return nil
	}
	_ = p.Flush()
	p.closed = true
	p.eof = true
	if p.file != nil {
		if err := p.file.Close(); err != nil {
			return &PortError{Dir: PortOutput, Reason: PortIOFailed}
		}
	}
	return nil
}
