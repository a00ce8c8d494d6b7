// Package file loads action trees from YAML or JSON files.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"gopkg.in/yaml.v3"
)

// TreeConfig is one node as written in a trees file.
// Enabled defaults to true when omitted.
type TreeConfig struct {
	ID       int32          `yaml:"id" json:"id"`
	Type     string         `yaml:"type" json:"type"`
	Enabled  *bool          `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Options  map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
	Children []TreeConfig   `yaml:"children,omitempty" json:"children,omitempty"`
}

// ConfigFile represents the structure of a trees file.
type ConfigFile struct {
	Trees []TreeConfig `yaml:"trees" json:"trees"`
}

// Node converts the configuration into a domain node.
func (c TreeConfig) Node() *domain.ActionNode {
	n := &domain.ActionNode{
		ID:      c.ID,
		Type:    c.Type,
		Enabled: c.Enabled == nil || *c.Enabled,
		Options: c.Options,
	}
	for _, child := range c.Children {
		n.Children = append(n.Children, child.Node())
	}
	return n
}

// Loader implements ports.TreeLoader over a file or a directory of files.
// Trees are read eagerly; Reload re-reads them.
type Loader struct {
	path string

	mu    sync.RWMutex
	trees *memory.Loader
}

// NewLoader reads every tree under path. path may be a single file or a
// directory, in which case every .yaml, .yml and .json file is read.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the trees from disk. On error the previous trees are kept.
func (l *Loader) Reload() error {
	files, err := treeFiles(l.path)
	if err != nil {
		return err
	}

	var roots []*domain.ActionNode
	for _, f := range files {
		cfg, err := ReadFile(f)
		if err != nil {
			return err
		}
		for _, t := range cfg.Trees {
			roots = append(roots, t.Node())
		}
	}

	trees, err := memory.NewLoader(roots...)
	if err != nil {
		return fmt.Errorf("load trees from %s: %w", l.path, err)
	}

	l.mu.Lock()
	l.trees = trees
	l.mu.Unlock()
	return nil
}

// Load returns the tree whose root has the given id.
func (l *Loader) Load(ctx context.Context, actionID int32) (*domain.ActionNode, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.trees.Load(ctx, actionID)
}

// List returns every root ordered by id.
func (l *Loader) List(ctx context.Context) ([]*domain.ActionNode, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.trees.List(ctx)
}

// ReadFile parses one trees file. JSON is selected by the .json extension, YAML otherwise.
func ReadFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trees file: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return &cfg, nil
}

func treeFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat trees path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trees directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
