package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem is the file-writing collaborator the assembler emits
// through. Paths are relative to the archive root.
type Filesystem interface {
	MkDir(path string) error
	WriteFile(path string, data []byte) error
}

// DirFS writes the archive under Root on the local filesystem.
type DirFS struct {
	Root string
}

func (d DirFS) MkDir(path string) error {
	return os.Mkdir(filepath.Join(d.Root, filepath.FromSlash(path)), 0o755)
}

func (d DirFS) WriteFile(path string, data []byte) error {
	return os.WriteFile(filepath.Join(d.Root, filepath.FromSlash(path)), data, 0o644)
}

// Confirmer resolves an output-directory collision. It is invoked with
// the colliding path and returns nil once creation may be retried; a
// nil Confirmer makes collisions fatal (the non-interactive contract).
type Confirmer func(path string) error

// PromptConfirmer asks the user to clear the path and waits for ENTER,
// matching an attended export run.
func PromptConfirmer(in io.Reader, out io.Writer) Confirmer {
	reader := bufio.NewReader(in)
	return func(path string) error {
		fmt.Fprintf(out, "Output directory already contains a file or directory called %s. Delete it and press ENTER to continue", path)
		_, err := reader.ReadString('\n')
		return err
	}
}

// createDir makes one directory, applying the collision policy at most
// once before retrying.
func createDir(fsys Filesystem, confirm Confirmer, path string) error {
	err := fsys.MkDir(path)
	if err == nil || !isExist(err) {
		return err
	}
	if confirm == nil {
		return fmt.Errorf("output path %s already exists", path)
	}
	if err := confirm(path); err != nil {
		return err
	}
	return fsys.MkDir(path)
}

func isExist(err error) bool {
	return errors.Is(err, fs.ErrExist)
}
