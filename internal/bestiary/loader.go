package bestiary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/encounter-backend/internal/encounter"
)

// ErrNoPacks is returned when the bestiary directory holds no pack files.
var ErrNoPacks = errors.New("no bestiary packs found")

// Paths helper for the bestiary layout under a data directory.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/data
}

func (p Paths) BestiaryDir() string {
	return filepath.Join(p.BaseDir, "bestiaries")
}
func (p Paths) PackPath(name string) string {
	return filepath.Join(p.BestiaryDir(), name+".yaml")
}

// Loader reads YAML packs from disk and caches them until invalidated.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	packs []Pack // nil until loaded
	gen   uint64 // bumped by Invalidate
}

// NewLoader creates a pack loader rooted at baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{paths: Paths{BaseDir: baseDir}}
}

// Paths returns the loader's layout.
func (l *Loader) Paths() Paths { return l.paths }

// Packs returns every pack under the bestiary directory, sorted by file
// name. Each pack is validated; the first invalid file fails the load.
func (l *Loader) Packs() ([]Pack, error) {
	l.mu.RLock()
	if l.packs != nil {
		packs := l.packs
		l.mu.RUnlock()
		return packs, nil
	}
	gen := l.gen
	l.mu.RUnlock()

	packs, err := l.readAll()
	if err != nil {
		return nil, err
	}
	l.cache(packs, gen)
	return packs, nil
}

// cache stores packs read while the generation was gen. An Invalidate
// since then means the files may have changed under the read, so the
// result is returned but not kept.
func (l *Loader) cache(packs []Pack, gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen == gen {
		l.packs = packs
	}
}

func (l *Loader) readAll() ([]Pack, error) {
	files, err := l.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoPacks, l.paths.BestiaryDir())
	}

	packs := make([]Pack, 0, len(files))
	names := make(map[string]string, len(files))
	for _, path := range files {
		p, err := ReadPack(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := names[p.Name]; dup {
			return nil, fmt.Errorf("pack %q defined in both %s and %s", p.Name, prev, path)
		}
		names[p.Name] = path
		packs = append(packs, p)
	}
	return packs, nil
}

// Files lists the pack files currently on disk.
func (l *Loader) Files() ([]string, error) {
	entries, err := os.ReadDir(l.paths.BestiaryDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read bestiary dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(l.paths.BestiaryDir(), e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Candidates implements Source.
func (l *Loader) Candidates(ctx context.Context, f Filter) ([]encounter.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	packs, err := l.Packs()
	if err != nil {
		return nil, err
	}
	return PoolFrom(packs, f), nil
}

// Invalidate clears the cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.packs = nil
	l.gen++
}

// ReadPack loads and validates one YAML pack file. A pack without a name
// takes the file's base name.
func ReadPack(path string) (Pack, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, fmt.Errorf("read pack %s: %w", path, err)
	}
	var p Pack
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Pack{}, fmt.Errorf("decode pack %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := ValidatePack(p); err != nil {
		return Pack{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
