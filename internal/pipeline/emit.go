package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Faultbox/meshmerge/pkg/formats"
	"github.com/Faultbox/meshmerge/pkg/mesh"
)

// WriteError reports a destination that could not be written. The mesh being
// emitted is untouched, so the write can be retried.
type WriteError struct {
	Destination string
	Err         error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Destination, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Emit writes m to dest in the format named by its extension. The data goes to a
// temporary file next to dest that is renamed into place, so dest is either
// fully written or left as it was.
func Emit(dest string, m *mesh.Mesh) error {
	if _, err := formats.FormatOf(dest); err != nil {
		return &WriteError{Destination: dest, Err: err}
	}

	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return &WriteError{Destination: dest, Err: err}
	}
	tmp := f.Name()

	if err := write(f, dest, m); err != nil {
		os.Remove(tmp)
		return &WriteError{Destination: dest, Err: err}
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return &WriteError{Destination: dest, Err: err}
	}
	return nil
}

func write(f *os.File, dest string, m *mesh.Mesh) error {
	if err := formats.Encode(f, dest, m); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
