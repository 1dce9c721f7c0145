// Package fakessh provides scriptable SSH transport fakes for testing.
package fakessh

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"sync"
	"time"

	"github.com/acolita/ssh-session-mcp/internal/ports"
)

// Dialer is a fake ports.Dialer that hands out scriptable connections and
// records the order of dial and close events.
type Dialer struct {
	mu      sync.Mutex
	dialErr error
	conns   []*Conn
	configs []ports.DialConfig
	events  []string
}

// NewDialer creates a fake dialer.
func NewDialer() *Dialer {
	return &Dialer{}
}

// FailWith makes subsequent Dial calls return err.
func (d *Dialer) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialErr = err
}

// Dial records the config and returns a new fake connection.
func (d *Dialer) Dial(cfg ports.DialConfig) (ports.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.configs = append(d.configs, cfg)
	d.events = append(d.events, "dial")
	if d.dialErr != nil {
		return nil, d.dialErr
	}

	c := newConn(d)
	d.conns = append(d.conns, c)
	return c, nil
}

// Conns returns every connection handed out so far.
func (d *Dialer) Conns() []*Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Conn(nil), d.conns...)
}

// Configs returns every dial config seen so far.
func (d *Dialer) Configs() []ports.DialConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ports.DialConfig(nil), d.configs...)
}

// Events returns the interleaved dial/close event log.
func (d *Dialer) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

func (d *Dialer) recordEvent(e string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

// Conn is a fake ports.Conn with scripted exec outcomes.
type Conn struct {
	dialer *Dialer

	mu       sync.Mutex
	closed   bool
	done     chan struct{}
	openErr  error
	script   []execOutcome
	channels []*ExecChannel
	sftp     ports.FileTransfer
	sftpErr  error
}

type execOutcome struct {
	out  ports.ExecOutput
	err  error
	hang bool
}

func newConn(d *Dialer) *Conn {
	return &Conn{
		dialer: d,
		done:   make(chan struct{}),
	}
}

// QueueExec scripts the outcome of the next exec channel run.
func (c *Conn) QueueExec(out ports.ExecOutput, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, execOutcome{out: out, err: err})
}

// QueueExit scripts a normal completion with the given exit code and output.
func (c *Conn) QueueExit(code int, stdout, stderr string) {
	c.QueueExec(ports.ExecOutput{
		Stdout:   []byte(stdout),
		Stderr:   []byte(stderr),
		ExitCode: &code,
	}, nil)
}

// QueueHang scripts an exec channel whose Run never finishes until the
// channel is closed.
func (c *Conn) QueueHang() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, execOutcome{hang: true})
}

// FailOpenWith makes OpenExec return err.
func (c *Conn) FailOpenWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

// OpenExec returns a fake exec channel wired to the next scripted outcome.
func (c *Conn) OpenExec() (ports.ExecChannel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("connection closed")
	}
	if c.openErr != nil {
		return nil, c.openErr
	}

	outcome := execOutcome{out: ports.ExecOutput{}}
	if len(c.script) > 0 {
		outcome = c.script[0]
		c.script = c.script[1:]
	}

	ch := &ExecChannel{outcome: outcome, release: make(chan struct{})}
	c.channels = append(c.channels, ch)
	return ch, nil
}

// SetFileTransfer scripts the OpenSFTP result.
func (c *Conn) SetFileTransfer(ft ports.FileTransfer, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sftp = ft
	c.sftpErr = err
}

// OpenSFTP returns the scripted file-transfer client.
func (c *Conn) OpenSFTP() (ports.FileTransfer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sftpErr != nil {
		return nil, c.sftpErr
	}
	if c.sftp == nil {
		return nil, fmt.Errorf("no file transfer scripted")
	}
	return c.sftp, nil
}

// Close marks the connection closed and fires the end event, like a real
// transport whose Wait returns once the connection is torn down.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	if c.dialer != nil {
		c.dialer.recordEvent("close")
	}
	return nil
}

// EndSession simulates the remote side terminating the connection.
func (c *Conn) EndSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// Closed reports whether Close or EndSession was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Done returns the end-event channel.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Channels returns every exec channel opened on this connection.
func (c *Conn) Channels() []*ExecChannel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ExecChannel(nil), c.channels...)
}

// ExecChannel is a fake ports.ExecChannel that records the command it ran.
type ExecChannel struct {
	mu      sync.Mutex
	outcome execOutcome
	command string
	closed  bool
	release chan struct{}
}

// Run records the command and returns the scripted outcome. A hanging
// outcome blocks until Close is called.
func (e *ExecChannel) Run(command string) (ports.ExecOutput, error) {
	e.mu.Lock()
	e.command = command
	outcome := e.outcome
	e.mu.Unlock()

	if outcome.hang {
		<-e.release
		return ports.ExecOutput{}, fmt.Errorf("channel closed")
	}
	return outcome.out, outcome.err
}

// Close releases a hanging Run.
func (e *ExecChannel) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.release)
	}
	return nil
}

// Command returns the command passed to Run.
func (e *ExecChannel) Command() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.command
}

// WasClosed reports whether Close was called.
func (e *ExecChannel) WasClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// FileTransfer is an in-memory fake of ports.FileTransfer.
type FileTransfer struct {
	mu    sync.Mutex
	Files map[string][]byte
	Dirs  map[string]bool
}

// NewFileTransfer creates an empty fake file-transfer client.
func NewFileTransfer() *FileTransfer {
	return &FileTransfer{
		Files: make(map[string][]byte),
		Dirs:  make(map[string]bool),
	}
}

// Open opens a remote file for reading.
func (t *FileTransfer) Open(path string) (io.ReadCloser, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data, ok := t.Files[path]
	if !ok {
		return nil, fmt.Errorf("remote file not found: %s", path)
	}
	return io.NopCloser(newByteReader(data)), nil
}

// Create opens a remote file for writing.
func (t *FileTransfer) Create(path string) (io.WriteCloser, error) {
	return &remoteWriter{t: t, path: path}, nil
}

// MkdirAll records the created directory.
func (t *FileTransfer) MkdirAll(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Dirs[path] = true
	return nil
}

// Stat returns file info for a known remote file or directory.
func (t *FileTransfer) Stat(name string) (fs.FileInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Dirs[name] {
		return fileInfo{name: path.Base(name), dir: true}, nil
	}
	if data, ok := t.Files[name]; ok {
		return fileInfo{name: path.Base(name), size: int64(len(data))}, nil
	}
	return nil, fmt.Errorf("remote path not found: %s", name)
}

// fileInfo is a minimal fs.FileInfo for Stat results.
type fileInfo struct {
	name string
	size int64
	dir  bool
}

func (f fileInfo) Name() string { return f.name }
func (f fileInfo) Size() int64  { return f.size }
func (f fileInfo) Mode() fs.FileMode {
	if f.dir {
		return fs.ModeDir | 0755
	}
	return 0644
}
func (f fileInfo) ModTime() time.Time { return time.Time{} }
func (f fileInfo) IsDir() bool        { return f.dir }
func (f fileInfo) Sys() any           { return nil }

type remoteWriter struct {
	t    *FileTransfer
	path string
	buf  []byte
}

func (w *remoteWriter) Write(b []byte) (int, error) {
	w.buf = append(w.buf, b...)
	return len(b), nil
}

func (w *remoteWriter) Close() error {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	w.t.Files[w.path] = w.buf
	return nil
}

type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// Ensure the fakes implement their ports.
var (
	_ ports.Dialer       = (*Dialer)(nil)
	_ ports.Conn         = (*Conn)(nil)
	_ ports.ExecChannel  = (*ExecChannel)(nil)
	_ ports.FileTransfer = (*FileTransfer)(nil)
)
