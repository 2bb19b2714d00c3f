package filesystem

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var ErrPathOutsideWorkspace = errors.New("path is outside of the workspace")

// Workspace confines all file operations to a root directory.
type Workspace struct {
	Root string
	fs   afero.Fs
}

func NewWorkspace(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open workspace %s", root)
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("workspace %s is not a directory", root)
	}

	return &Workspace{
		Root: abs,
		fs:   afero.NewBasePathFs(afero.NewOsFs(), abs),
	}, nil
}

// NewWorkspaceFs uses fs as the workspace, rooted at "/".
func NewWorkspaceFs(fs afero.Fs) *Workspace {
	return &Workspace{Root: "/", fs: fs}
}

func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

// Resolve maps a path given by the model to a path inside the workspace.
// Relative paths are relative to the root. Paths escaping the root are
// rejected.
func (w *Workspace) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("empty path")
	}

	p := path
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(w.Root, p)
		if err != nil {
			return "", errors.Wrap(ErrPathOutsideWorkspace, path)
		}
		p = rel
	}

	p = filepath.Clean(p)
	if p == ".." || strings.HasPrefix(p, ".."+string(filepath.Separator)) {
		return "", errors.Wrap(ErrPathOutsideWorkspace, path)
	}

	return filepath.Join(string(filepath.Separator), p), nil
}

func (w *Workspace) Exists(path string) (bool, error) {
	return afero.Exists(w.fs, path)
}

func (w *Workspace) IsDir(path string) (bool, error) {
	return afero.IsDir(w.fs, path)
}

func (w *Workspace) ReadFile(path string) (string, error) {
	b, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (w *Workspace) WriteFile(path string, content string) error {
	if err := w.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(w.fs, path, []byte(content), 0o644)
}

func (w *Workspace) MkdirAll(path string) error {
	return w.fs.MkdirAll(path, 0o755)
}

func (w *Workspace) Rename(oldPath, newPath string) error {
	return w.fs.Rename(oldPath, newPath)
}

// List returns the entries of a directory, directories with a trailing slash.
func (w *Workspace) List(path string) ([]string, error) {
	infos, err := afero.ReadDir(w.fs, path)
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, len(infos))
	for _, fi := range infos {
		name := fi.Name()
		if fi.IsDir() {
			name += "/"
		}
		ret = append(ret, name)
	}
	return ret, nil
}
