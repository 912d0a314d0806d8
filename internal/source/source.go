// Package source loads tree update documents from a billy filesystem.
// JSON and YAML documents are accepted. A document is a single update,
// a list of updates or an api.Script; a JSONPath selector can narrow it
// first.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/ohler55/ojg/jp"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/axtree/api"
	"github.com/agentic-research/axtree/internal/ax"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptySelection    = errors.New("selector matched nothing")
)

// Loader reads update documents from FS.
type Loader struct {
	FS billy.Filesystem
	// Selector is a JSONPath applied to each document before decoding.
	// Empty means the whole document.
	Selector string
}

func NewLoader(fs billy.Filesystem, selector string) *Loader {
	return &Loader{FS: fs, Selector: selector}
}

// Load decodes the document at p into updates, in document order.
func (l *Loader) Load(p string) ([]ax.TreeUpdate, error) {
	raw, err := l.read(p)
	if err != nil {
		return nil, err
	}

	var doc any
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		doc, err = parseJSON(raw)
	case ".yaml", ".yml":
		doc, err = parseYAML(raw)
	default:
		return nil, fmt.Errorf("%s: %w", p, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}

	updates, err := l.decode(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return updates, nil
}

// LoadAll loads paths concurrently and concatenates their updates in
// path order.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]ax.TreeUpdate, error) {
	results := make([][]ax.TreeUpdate, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			u, err := l.Load(p)
			if err != nil {
				return err
			}
			results[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []ax.TreeUpdate
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (l *Loader) read(p string) ([]byte, error) {
	f, err := l.FS.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer func() { _ = f.Close() }()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return raw, nil
}

func (l *Loader) decode(doc any) ([]ax.TreeUpdate, error) {
	if l.Selector == "" {
		return decodeDocument(doc)
	}

	x, err := jp.ParseString(l.Selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", l.Selector, err)
	}
	matches := x.Get(doc)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrEmptySelection, l.Selector)
	case 1:
		return decodeDocument(matches[0])
	}

	var out []ax.TreeUpdate
	for _, m := range matches {
		u, err := decodeDocument(m)
		if err != nil {
			return nil, err
		}
		out = append(out, u...)
	}
	return out, nil
}

// decodeDocument recognizes a script (an object with "updates"), a list
// of updates or a single update object.
func decodeDocument(doc any) ([]ax.TreeUpdate, error) {
	switch v := doc.(type) {
	case map[string]any:
		if _, ok := v["updates"]; ok {
			var s api.Script
			if err := convert(v, &s); err != nil {
				return nil, fmt.Errorf("script: %w", err)
			}
			return scriptUpdates(&s)
		}
		var u ax.TreeUpdate
		if err := convert(v, &u); err != nil {
			return nil, fmt.Errorf("update: %w", err)
		}
		return []ax.TreeUpdate{u}, nil
	case []any:
		out := make([]ax.TreeUpdate, len(v))
		for i, item := range v {
			if err := convert(item, &out[i]); err != nil {
				return nil, fmt.Errorf("update %d: %w", i, err)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: top level is %T", ErrUnsupportedFormat, doc)
}

func scriptUpdates(s *api.Script) ([]ax.TreeUpdate, error) {
	if s.Version != "" && s.Version != api.ScriptVersion {
		return nil, fmt.Errorf("script version %q not supported", s.Version)
	}
	if s.TreeID != "" {
		for i := range s.Updates {
			u := &s.Updates[i]
			if u.HasTreeData && u.TreeData.TreeID == "" {
				u.TreeData.TreeID = s.TreeID
			}
		}
	}
	return s.Updates, nil
}
