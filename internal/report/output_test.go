package report

import (
	"bytes"
	"errors"
	"io/fs"
	"strings"
	"testing"
)

// memFS records writes in memory. Directories listed in existing
// collide on the first MkDir, like leftovers from a prior run.
type memFS struct {
	dirs     []string
	files    map[string]string
	existing map[string]bool
}

func newMemFS() *memFS {
	return &memFS{files: map[string]string{}, existing: map[string]bool{}}
}

func (m *memFS) MkDir(path string) error {
	if m.existing[path] {
		m.existing[path] = false
		return fs.ErrExist
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *memFS) WriteFile(path string, data []byte) error {
	m.files[path] = string(data)
	return nil
}

func TestCreateDirPlain(t *testing.T) {
	fsys := newMemFS()
	if err := createDir(fsys, nil, "2023"); err != nil {
		t.Fatalf("createDir: %v", err)
	}
	if len(fsys.dirs) != 1 || fsys.dirs[0] != "2023" {
		t.Errorf("dirs = %v", fsys.dirs)
	}
}

func TestCreateDirCollisionConfirmed(t *testing.T) {
	fsys := newMemFS()
	fsys.existing["2023"] = true

	var asked []string
	confirm := func(path string) error {
		asked = append(asked, path)
		return nil
	}
	if err := createDir(fsys, confirm, "2023"); err != nil {
		t.Fatalf("createDir: %v", err)
	}
	if len(asked) != 1 || asked[0] != "2023" {
		t.Errorf("confirmations = %v", asked)
	}
	if len(fsys.dirs) != 1 {
		t.Errorf("dir not recreated after confirmation: %v", fsys.dirs)
	}
}

func TestCreateDirCollisionNoConfirmer(t *testing.T) {
	fsys := newMemFS()
	fsys.existing["2023"] = true
	err := createDir(fsys, nil, "2023")
	if err == nil {
		t.Fatal("expected error without a confirmer")
	}
}

func TestCreateDirConfirmerRefuses(t *testing.T) {
	fsys := newMemFS()
	fsys.existing["2023"] = true
	refuse := errors.New("keep it")
	err := createDir(fsys, func(string) error { return refuse }, "2023")
	if !errors.Is(err, refuse) {
		t.Errorf("err = %v, want %v", err, refuse)
	}
}

func TestPromptConfirmerWaitsForEnter(t *testing.T) {
	var out bytes.Buffer
	confirm := PromptConfirmer(strings.NewReader("\n"), &out)
	if err := confirm("2023"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !strings.Contains(out.String(), "2023") {
		t.Errorf("prompt missing path: %q", out.String())
	}
}
