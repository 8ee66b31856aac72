package provider

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// FSGlob is a concrete, filesystem-backed Enumerable ComputeProvider: it
// walks root recursively and surfaces every file whose base name matches
// pattern as a tuple (path String, size Integer, modUnix Integer).
//
// It is the "collaborator example" SPEC_FULL.md calls for: a provider a
// demo or test can register without standing up any external service.
type FSGlob struct {
	root    string
	pattern string
}

// NewFSGlob returns a provider walking root for files matching pattern
// (standard filepath.Match syntax: "*.go", "*.json"). root accepts a
// leading "~" for the user's home directory; an empty root defaults to ".".
func NewFSGlob(root, pattern string) *FSGlob {
	return &FSGlob{root: expandHome(root), pattern: pattern}
}

func expandHome(root string) string {
	if root == "" {
		return "."
	}
	if root == "~" || strings.HasPrefix(root, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(root, "~"))
		}
	}
	return root
}

func (p *FSGlob) Mode() Mode { return ModeEnumerable }

type fsStamp struct {
	size    int64
	modUnix int64
}

type fsSnapshot map[string]fsStamp

func (p *FSGlob) scan() (fsSnapshot, error) {
	snap := fsSnapshot{}
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if d.IsDir() {
			return nil
		}
		matched, _ := filepath.Match(p.pattern, d.Name())
		if !matched {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		snap[path] = fsStamp{size: info.Size(), modUnix: info.ModTime().Unix()}
		return nil
	})
	if err != nil {
		return nil, diag.Provider("provider.FSGlob.scan", "walking %q: %v", p.root, err)
	}
	return snap, nil
}

func (p *FSGlob) tupleFor(path string, st fsStamp) (tuple.Tuple, error) {
	return tuple.New(atom.String(path), atom.Integer(int32(st.size)), atom.Integer(int32(st.modUnix)))
}

// Enumerate returns a tuple per matching file as the cold-start add set.
func (p *FSGlob) Enumerate() ([]tuple.Tuple, StateHandle, error) {
	snap, err := p.scan()
	if err != nil {
		return nil, nil, err
	}
	out := make([]tuple.Tuple, 0, len(snap))
	for path, st := range snap {
		tp, err := p.tupleFor(path, st)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, tp)
	}
	return out, snap, nil
}

// DeltaSince re-scans the directory and diffs against the snapshot captured
// in handle: new or modified files are adds (a modified file's old tuple is
// also a remove, since path+size+modUnix forms its identity), deleted
// files are removes.
func (p *FSGlob) DeltaSince(handle StateHandle) (adds, removes []tuple.Tuple, next StateHandle, err error) {
	prev, _ := handle.(fsSnapshot)
	cur, err := p.scan()
	if err != nil {
		return nil, nil, handle, err
	}
	for path, st := range cur {
		old, existed := prev[path]
		if !existed {
			tp, err := p.tupleFor(path, st)
			if err != nil {
				return nil, nil, handle, err
			}
			adds = append(adds, tp)
			continue
		}
		if old != st {
			oldTp, err := p.tupleFor(path, old)
			if err != nil {
				return nil, nil, handle, err
			}
			newTp, err := p.tupleFor(path, st)
			if err != nil {
				return nil, nil, handle, err
			}
			removes = append(removes, oldTp)
			adds = append(adds, newTp)
		}
	}
	for path, old := range prev {
		if _, stillPresent := cur[path]; !stillPresent {
			tp, err := p.tupleFor(path, old)
			if err != nil {
				return nil, nil, handle, err
			}
			removes = append(removes, tp)
		}
	}
	return adds, removes, cur, nil
}
