package settings

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/1rns/obsidian-math-booster/internal/atomicfile"
	"github.com/1rns/obsidian-math-booster/internal/paths"
)

// Store holds the override tree for one vault and answers Resolve
// queries against it. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	overrides map[string]Override // node path (document ID or folder) -> partial settings
	excluded  map[string]struct{} // excluded paths (document IDs or folders)
	filePath  string              // where the store persists, "" for in-memory
	version   uint64              // bumped on every mutation, read by caches
}

// storeFile is the persisted YAML layout: a root-keyed settings object
// plus a list of excluded paths.
type storeFile struct {
	Overrides map[string]Override `yaml:"overrides,omitempty"`
	Excluded  []string            `yaml:"excluded,omitempty"`
}

// NewStore returns an empty in-memory store (root defaults only).
func NewStore() *Store {
	return &Store{
		overrides: make(map[string]Override),
		excluded:  make(map[string]struct{}),
	}
}

// Load reads the settings file. A missing file yields an empty store.
// Invalid enumerated values inside overrides are kept in the file but
// reported as warnings; unknown keys are discarded by the YAML decode.
func Load(filePath string) (*Store, []string, error) {
	s := NewStore()
	s.filePath = filePath

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil, nil
		}
		return nil, nil, fmt.Errorf("read settings: %w", err)
	}

	var f storeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse settings: %w", err)
	}

	var warnings []string
	for node, o := range f.Overrides {
		node = normalizeNode(node)
		// Probe for invalid values so load can report them. The invalid
		// keys stay in the override but never win at resolve time.
		probe := Defaults()
		for _, bad := range o.apply(&probe) {
			warnings = append(warnings, fmt.Sprintf("%s: invalid value %s (using default)", nodeLabel(node), bad))
		}
		s.overrides[node] = o
	}
	for _, p := range f.Excluded {
		s.excluded[normalizeNode(p)] = struct{}{}
	}

	return s, warnings, nil
}

// SaveTo persists the store to the given file and remembers it as the
// store's home for later Save calls.
func (s *Store) SaveTo(filePath string) error {
	s.mu.Lock()
	s.filePath = filePath
	s.mu.Unlock()
	return s.Save()
}

// Save persists the store to its file atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	f := storeFile{
		Overrides: make(map[string]Override, len(s.overrides)),
		Excluded:  make([]string, 0, len(s.excluded)),
	}
	for node, o := range s.overrides {
		f.Overrides[node] = o
	}
	for p := range s.excluded {
		f.Excluded = append(f.Excluded, p)
	}
	filePath := s.filePath
	s.mu.RUnlock()

	if filePath == "" {
		return nil
	}
	sort.Strings(f.Excluded)

	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(filePath, data, 0o644)
}

// Resolve computes the effective settings for a document or folder path.
// It is a pure read: the closest node that sets a key wins, the root
// default fills everything else. Invalid values never propagate.
func (s *Store) Resolve(path string) Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eff := Defaults()

	// Ancestors returns closest-first; apply root-first so closer
	// overrides win.
	chain := paths.Ancestors(normalizeNode(path))
	for i := len(chain) - 1; i >= 0; i-- {
		if o, ok := s.overrides[chain[i]]; ok {
			o.apply(&eff)
		}
	}
	return eff
}

// SetOverride installs or replaces the partial settings at a node.
// An empty override removes the node.
func (s *Store) SetOverride(node string, o Override) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node = normalizeNode(node)
	if o.IsEmpty() {
		delete(s.overrides, node)
	} else {
		s.overrides[node] = o
	}
	s.version++
}

// RemoveOverride deletes the override at a node.
func (s *Store) RemoveOverride(node string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, normalizeNode(node))
	s.version++
}

// OverrideAt returns the partial settings stored at a node.
func (s *Store) OverrideAt(node string) (Override, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[normalizeNode(node)]
	return o, ok
}

// Nodes returns all override node paths, sorted.
func (s *Store) Nodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make([]string, 0, len(s.overrides))
	for n := range s.overrides {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// Exclude adds a path to the exclusion list.
func (s *Store) Exclude(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excluded[normalizeNode(path)] = struct{}{}
	s.version++
}

// Unexclude removes a path from the exclusion list.
func (s *Store) Unexclude(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.excluded, normalizeNode(path))
	s.version++
}

// IsExcluded reports whether a document is excluded from indexing,
// either via the exclusion list (self or ancestor folder) or via an
// effective excluded=true setting.
func (s *Store) IsExcluded(docPath string) bool {
	s.mu.RLock()
	node := normalizeNode(docPath)
	for _, a := range paths.Ancestors(node) {
		if a == "" {
			continue
		}
		if _, ok := s.excluded[a]; ok {
			s.mu.RUnlock()
			return true
		}
	}
	s.mu.RUnlock()

	return s.Resolve(docPath).Excluded
}

// ExcludedPaths returns the exclusion list, sorted.
func (s *Store) ExcludedPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.excluded))
	for p := range s.excluded {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Version is bumped on every mutation. Consumers that cache resolved
// settings compare versions instead of re-reading the whole store.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// AffectedDocuments filters docPaths down to those whose effective
// settings are reachable through the given node: the node itself and
// every descendant. The root node affects every document.
func AffectedDocuments(node string, docPaths []string) []string {
	var out []string
	for _, p := range docPaths {
		if paths.IsDescendant(node, paths.FileToDocumentID(p)) || paths.IsDescendant(node, p) {
			out = append(out, p)
		}
	}
	return out
}

// normalizeNode canonicalizes a node key: separators normalized and a
// trailing ".md" stripped so documents and their IDs share a key.
func normalizeNode(p string) string {
	return paths.FileToDocumentID(p)
}

func nodeLabel(node string) string {
	if node == "" {
		return "(root)"
	}
	return node
}
