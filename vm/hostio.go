package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// ---------------------------------------------------------------------------
// Host collaborator contracts
// ---------------------------------------------------------------------------

// Streams is the standard-stream collaborator. The standard-io opcode group
// delegates all stream traffic and process-argument access to it; the VM
// itself never touches process streams.
type Streams interface {
	// Args returns the host-supplied process argument strings.
	Args() []string

	// WriteOut writes bytes to the output channel.
	WriteOut(p []byte) error

	// WriteErr writes bytes to the error channel.
	WriteErr(p []byte) error

	// ReadLine reads one line from the input channel, without the line
	// terminator. It returns io.EOF when the input is exhausted.
	ReadLine() ([]byte, error)

	// Read reads up to max bytes from the input channel. It returns
	// io.EOF when the input is exhausted.
	Read(max int) ([]byte, error)
}

// Filesystem is the filesystem collaborator. The file-io opcode group
// delegates every filesystem operation to it.
type Filesystem interface {
	IsFile(path string) bool
	IsDirectory(path string) bool
	CreateFile(path string) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Size(path string) (int64, error)
	Move(src, dst string) error
	Copy(src, dst string) error

	// ReadDir enumerates the entry names of a directory.
	ReadDir(path string) ([]string, error)
}

// ---------------------------------------------------------------------------
// OS-backed streams
// ---------------------------------------------------------------------------

// OSStreams implements Streams over the process's standard streams.
type OSStreams struct {
	in   *bufio.Reader
	out  io.Writer
	err  io.Writer
	args []string
}

// NewOSStreams creates a Streams bound to os.Stdin/Stdout/Stderr with the
// given program arguments.
func NewOSStreams(args []string) *OSStreams {
	return &OSStreams{
		in:   bufio.NewReader(os.Stdin),
		out:  os.Stdout,
		err:  os.Stderr,
		args: args,
	}
}

// Args returns the process arguments.
func (s *OSStreams) Args() []string {
	return s.args
}

// WriteOut writes to standard output.
func (s *OSStreams) WriteOut(p []byte) error {
	_, err := s.out.Write(p)
	return err
}

// WriteErr writes to standard error.
func (s *OSStreams) WriteErr(p []byte) error {
	_, err := s.err.Write(p)
	return err
}

// ReadLine reads one line from standard input, without the terminator.
func (s *OSStreams) ReadLine() ([]byte, error) {
	line, err := s.in.ReadBytes('\n')
	if len(line) > 0 {
		line = trimLineEnding(line)
		return line, nil
	}
	return nil, err
}

// Read reads up to max bytes from standard input.
func (s *OSStreams) Read(max int) ([]byte, error) {
	if max <= 0 {
		return nil, nil
	}
	buf := make([]byte, max)
	n, err := s.in.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	return nil, err
}

func trimLineEnding(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}

// ---------------------------------------------------------------------------
// OS-backed filesystem
// ---------------------------------------------------------------------------

// OSFilesystem implements Filesystem over the os package.
type OSFilesystem struct{}

// NewOSFilesystem creates a Filesystem backed by the real filesystem.
func NewOSFilesystem() *OSFilesystem {
	return &OSFilesystem{}
}

// IsFile reports whether path names a regular file.
func (OSFilesystem) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDirectory reports whether path names a directory.
func (OSFilesystem) IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CreateFile creates (or truncates) an empty file at path.
func (OSFilesystem) CreateFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// ReadFile reads the entire file contents.
func (OSFilesystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to path, creating the file if needed.
func (OSFilesystem) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// Size returns the byte size of the file at path.
func (OSFilesystem) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Move renames src to dst.
func (OSFilesystem) Move(src, dst string) error {
	return os.Rename(src, dst)
}

// Copy copies the regular file src to dst.
func (OSFilesystem) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadDir enumerates the entry names of a directory.
func (OSFilesystem) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// ---------------------------------------------------------------------------
// Null collaborators
// ---------------------------------------------------------------------------

// nullStreams rejects all stream traffic. It backs VMs constructed without
// a Streams collaborator so that granted standard-io opcodes fail loudly
// instead of dereferencing nil.
type nullStreams struct{}

func (nullStreams) Args() []string               { return nil }
func (nullStreams) WriteOut(p []byte) error      { return errNoStreams }
func (nullStreams) WriteErr(p []byte) error      { return errNoStreams }
func (nullStreams) ReadLine() ([]byte, error)    { return nil, errNoStreams }
func (nullStreams) Read(max int) ([]byte, error) { return nil, errNoStreams }

var errNoStreams = fmt.Errorf("vm: no stream collaborator configured")

// nullFilesystem rejects all filesystem traffic.
type nullFilesystem struct{}

func (nullFilesystem) IsFile(string) bool                  { return false }
func (nullFilesystem) IsDirectory(string) bool             { return false }
func (nullFilesystem) CreateFile(string) error             { return errNoFilesystem }
func (nullFilesystem) ReadFile(string) ([]byte, error)     { return nil, errNoFilesystem }
func (nullFilesystem) WriteFile(string, []byte) error      { return errNoFilesystem }
func (nullFilesystem) Size(string) (int64, error)          { return 0, errNoFilesystem }
func (nullFilesystem) Move(string, string) error           { return errNoFilesystem }
func (nullFilesystem) Copy(string, string) error           { return errNoFilesystem }
func (nullFilesystem) ReadDir(string) ([]string, error)    { return nil, errNoFilesystem }

var errNoFilesystem = fmt.Errorf("vm: no filesystem collaborator configured")
