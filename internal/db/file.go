package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// FileGateway stores the task collection as a JSON array in a single file.
type FileGateway struct {
	path string
}

func NewFileGateway(path string) (*FileGateway, error) {
	if path == "" {
		return nil, fmt.Errorf("tasks file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileGateway{path: path}, nil
}

func (g *FileGateway) Path() string {
	return g.path
}

func (g *FileGateway) Load(_ context.Context) ([]model.Task, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Task{}, nil
		}
		return nil, err
	}
	return decodeTasks(data)
}

// Save replaces the file through a temp file and rename.
func (g *FileGateway) Save(_ context.Context, tasks []model.Task) error {
	payload, err := encodeTasks(tasks)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(g.path), filepath.Base(g.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, g.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
