package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jhin-exe/weave/pkg/project"
	"github.com/jhin-exe/weave/pkg/storage"
)

// Project operations (filesystem-backed)

func (r *RedisStorage) projectsDir() string {
	return filepath.Join(r.dataDir, "projects")
}

// ListProjects maps each readable project's title to its file name.
// Files that fail to parse are skipped with a warning.
func (r *RedisStorage) ListProjects(ctx context.Context) (map[string]string, error) {
	projects := make(map[string]string)

	err := filepath.WalkDir(r.projectsDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		p, err := project.Load(path)
		if err != nil {
			r.logger.Warn("Failed to load project file", "path", path, "error", err)
			return nil
		}
		projects[p.Meta.Title] = filepath.Base(path)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to walk projects directory", "error", err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// GetProject loads a project by file name. Names that would escape the
// projects directory are treated as unknown.
func (r *RedisStorage) GetProject(ctx context.Context, filename string) (*project.Project, error) {
	if filename == "" || filename != filepath.Base(filename) || filepath.Ext(filename) != ".json" {
		return nil, fmt.Errorf("%w: %s", storage.ErrProjectNotFound, filename)
	}

	path := filepath.Join(r.projectsDir(), filename)
	r.logger.Debug("Loading project", "filename", filename, "full_path", path)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrProjectNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	p, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}
