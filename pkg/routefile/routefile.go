// Package routefile loads declarative route tables from YAML.
//
// A file holds a list of routes. Each route is either a mapping
//
//	- method: GET
//	  path: /admin/users/{id}
//	  handler: Admin.show
//	  guard: [auth, "role:admin"]
//
// or a positional tuple
//
//	- [GET, /dashboard, Dashboard.index, auth]
//
// The guard is optional and may be a single string or a list.
package routefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformed is returned for any route source that does not yield a
// well-formed list of routes.
var ErrMalformed = errors.New("routefile: malformed route source")

// Entry is a single declarative route.
type Entry struct {
	Method  string
	Path    string
	Handler string
	Guard   []string
	Source  string // file the entry came from
}

// GuardValue returns the guard in the shape the route table accepts:
// nil, a single string, or a list of strings.
func (e Entry) GuardValue() any {
	switch len(e.Guard) {
	case 0:
		return nil
	case 1:
		return e.Guard[0]
	default:
		out := make([]any, len(e.Guard))
		for i, g := range e.Guard {
			out[i] = g
		}
		return out
	}
}

type mappingEntry struct {
	Method  string    `yaml:"method"`
	Path    string    `yaml:"path"`
	Handler string    `yaml:"handler"`
	Guard   yaml.Node `yaml:"guard"`
}

// UnmarshalYAML accepts the mapping and tuple forms.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var m mappingEntry
		if err := node.Decode(&m); err != nil {
			return err
		}
		guard, err := decodeGuard(&m.Guard)
		if err != nil {
			return err
		}
		*e = Entry{Method: m.Method, Path: m.Path, Handler: m.Handler, Guard: guard}
		return nil

	case yaml.SequenceNode:
		if len(node.Content) < 3 || len(node.Content) > 4 {
			return fmt.Errorf("line %d: tuple route needs 3 or 4 items, got %d", node.Line, len(node.Content))
		}
		fields := make([]string, 3)
		for i := range fields {
			if node.Content[i].Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: tuple item %d must be a string", node.Line, i+1)
			}
			fields[i] = node.Content[i].Value
		}
		*e = Entry{Method: fields[0], Path: fields[1], Handler: fields[2]}
		if len(node.Content) == 4 {
			guard, err := decodeGuard(node.Content[3])
			if err != nil {
				return err
			}
			e.Guard = guard
		}
		return nil

	default:
		return fmt.Errorf("line %d: route must be a mapping or a list", node.Line)
	}
}

func decodeGuard(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			return nil, nil
		}
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("line %d: guard list must contain strings", node.Line)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("line %d: guard must be a string or a list of strings", node.Line)
	}
}

// Parse decodes a YAML document. name is used in error messages.
func Parse(name string, data []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}

	// An empty file is an empty list.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: %s: document must be a list of routes", ErrMalformed, name)
	}

	entries := make([]Entry, 0, len(root.Content))
	for i, item := range root.Content {
		var e Entry
		if err := item.Decode(&e); err != nil {
			return nil, fmt.Errorf("%w: %s: route %d: %v", ErrMalformed, name, i+1, err)
		}
		e.Method = strings.ToUpper(strings.TrimSpace(e.Method))
		e.Path = strings.TrimSpace(e.Path)
		e.Handler = strings.TrimSpace(e.Handler)
		if e.Method == "" || e.Path == "" || e.Handler == "" {
			return nil, fmt.Errorf("%w: %s: route %d: method, path and handler are required", ErrMalformed, name, i+1)
		}
		e.Source = name
		entries = append(entries, e)
	}

	return entries, nil
}

// Load reads one YAML file.
func Load(file string) ([]Entry, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Parse(file, data)
}

// LoadDir loads every .yaml/.yml file below dir, recursively, in lexical
// path order. A missing directory is an error.
func LoadDir(dir string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: routes directory: %v", ErrMalformed, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMalformed, dir)
	}
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS is LoadDir over an fs.FS, so route files can be embedded.
func LoadFS(fsys fs.FS, root string) ([]Entry, error) {
	var files []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch path.Ext(p) {
		case ".yaml", ".yml":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	sort.Strings(files)

	var all []Entry
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, f, err)
		}
		entries, err := Parse(f, data)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}

	return all, nil
}
