package probe

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FSProber checks files relative to a local root directory.
type FSProber struct {
	root string
}

func NewFSProber(root string) *FSProber {
	if root == "" {
		root = "."
	}
	return &FSProber{root: root}
}

func (p *FSProber) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(filepath.Join(p.root, filepath.FromSlash(objectKey(path))))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}
