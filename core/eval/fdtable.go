package eval

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type fdEntry struct {
	file *os.File
	// owned entries are closed when the table is closed.
	owned bool
}

// fdTable holds the standard descriptors of one shell. Launched programs
// receive exactly these three files as descriptors 0, 1 and 2.
type fdTable struct {
	entries [3]fdEntry
}

func newFDTable(stdin, stdout, stderr *os.File) *fdTable {
	return &fdTable{
		entries: [3]fdEntry{{file: stdin}, {file: stdout}, {file: stderr}},
	}
}

func (t *fdTable) get(fd int) *os.File {
	return t.entries[fd].file
}

// fds returns the raw descriptors in the order ForkExec expects.
func (t *fdTable) fds() []uintptr {
	out := make([]uintptr, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.file.Fd()
	}
	return out
}

// dup returns a table owning close-on-exec duplicates of every entry, the
// way a forked process inherits its parent's descriptors.
func (t *fdTable) dup() (*fdTable, error) {
	out := &fdTable{}
	for i, e := range t.entries {
		f, err := dupFile(e.file)
		if err != nil {
			out.close()
			return nil, err
		}
		out.entries[i] = fdEntry{file: f, owned: true}
	}
	return out, nil
}

func dupFile(f *os.File) (*os.File, error) {
	fd, err := unix.FcntlInt(f.Fd(), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("dup %s: %w", f.Name(), err)
	}
	return os.NewFile(uintptr(fd), f.Name()), nil
}

// replace installs f at fd for good, closing the entry it displaces if the
// table owned it.
func (t *fdTable) replace(fd int, f *os.File) error {
	old := t.entries[fd]
	t.entries[fd] = fdEntry{file: f, owned: true}
	if old.owned && old.file != f {
		return old.file.Close()
	}
	return nil
}

func (t *fdTable) close() error {
	var errs []error
	for i, e := range t.entries {
		if e.owned && e.file != nil {
			if err := e.file.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		t.entries[i] = fdEntry{}
	}
	return errors.Join(errs...)
}

// bind points every descriptor in fds at f until the returned binding is
// released.
func (t *fdTable) bind(f *os.File, fds ...int) *binding {
	b := &binding{table: t, file: f, fds: fds}
	for _, fd := range fds {
		b.saved = append(b.saved, t.entries[fd])
		t.entries[fd] = fdEntry{file: f}
	}
	return b
}

// binding is a temporary substitution of one or more descriptors. Release
// must run on every path out of the code that created it.
type binding struct {
	table    *fdTable
	file     *os.File
	fds      []int
	saved    []fdEntry
	released bool
}

// Release restores the saved entries, newest first, then closes the bound
// file. Calling it again does nothing.
func (b *binding) Release() error {
	if b.released {
		return nil
	}
	b.released = true

	for i := len(b.fds) - 1; i >= 0; i-- {
		b.table.entries[b.fds[i]] = b.saved[i]
	}
	return b.file.Close()
}
