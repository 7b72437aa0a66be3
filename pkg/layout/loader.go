// Package layout loads module definitions from disk. A layout is a set of
// YAML, JSON or TOML files, each holding either a single module or a
// `modules` list, or an OpenAPI document whose request bodies become
// modules.
package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formcontainer/internal/openapi/modules"
	"github.com/goliatone/go-formcontainer/pkg/memform"
)

// Layout is an ordered set of module definitions.
type Layout struct {
	Modules []memform.Definition
	sources map[string]string
}

// Source returns the file a module was loaded from.
func (l *Layout) Source(code string) (string, bool) {
	if l == nil {
		return "", false
	}
	source, ok := l.sources[code]
	return source, ok
}

// Empty reports whether the layout holds any module.
func (l *Layout) Empty() bool {
	return l == nil || len(l.Modules) == 0
}

func (l *Layout) add(def memform.Definition, source string) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("layout: %s: %w", source, err)
	}
	code := strings.TrimSpace(def.Code)
	if previous, exists := l.sources[code]; exists {
		return fmt.Errorf("layout: duplicate module %q (files %s and %s)", code, previous, source)
	}
	def.Code = code
	l.sources[code] = source
	l.Modules = append(l.Modules, def)
	return nil
}

type documentFile struct {
	memform.Definition `yaml:",inline"`
	Modules            []memform.Definition `json:"modules" yaml:"modules" toml:"modules"`
}

// LoadFS walks fsys in lexical order and parses every layout file. A nil
// fsys yields an empty layout.
func LoadFS(ctx context.Context, fsys fs.FS) (*Layout, error) {
	out := &Layout{sources: make(map[string]string)}
	if fsys == nil {
		return out, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isLayoutFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("layout: read %s: %w", path, err)
		}
		defs, err := parse(ctx, data, path)
		if err != nil {
			return err
		}
		for _, def := range defs {
			if err := out.add(def, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadPath loads a layout directory or a single layout/OpenAPI file.
func LoadPath(ctx context.Context, path string) (*Layout, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if info.IsDir() {
		return LoadFS(ctx, os.DirFS(path))
	}
	return LoadFS(ctx, singleFile{dir: os.DirFS(filepath.Dir(path)), name: filepath.Base(path)})
}

func parse(ctx context.Context, data []byte, source string) ([]memform.Definition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("layout: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".toml") {
		var doc documentFile
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("layout: parse %s: %w", source, err)
		}
		return doc.definitions(source)
	}

	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("layout: parse %s: invalid JSON or YAML", source)
	}
	if modules.IsDocument(probe) {
		defs, err := modules.FromData(ctx, data, modules.Options{})
		if err != nil {
			return nil, fmt.Errorf("layout: %s: %w", source, err)
		}
		return defs, nil
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = documentFile{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("layout: parse %s: invalid JSON or YAML", source)
		}
	}
	return doc.definitions(source)
}

func (d documentFile) definitions(source string) ([]memform.Definition, error) {
	var out []memform.Definition
	if strings.TrimSpace(d.Code) != "" {
		out = append(out, d.Definition)
	}
	out = append(out, d.Modules...)
	if len(out) == 0 {
		return nil, fmt.Errorf("layout: file %s defines no modules", source)
	}
	return out, nil
}

func isLayoutFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}

// singleFile exposes one file of a directory as an fs.FS.
type singleFile struct {
	dir  fs.FS
	name string
}

func (s singleFile) Open(name string) (fs.File, error) {
	if name != "." && name != s.name {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return s.dir.Open(name)
}

func (s singleFile) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	info, err := fs.Stat(s.dir, s.name)
	if err != nil {
		return nil, err
	}
	return []fs.DirEntry{fs.FileInfoToDirEntry(info)}, nil
}
