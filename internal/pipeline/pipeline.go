// Package pipeline keeps the vault index correct under document change,
// rename, and delete events, and under settings changes that cascade
// through the folder tree.
//
// All index mutations are serialized through a single event-handling
// goroutine. Scanning and numbering are pure and may run in parallel
// during a full rebuild; only the final upsert is serialized.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/1rns/obsidian-math-booster/internal/index"
	"github.com/1rns/obsidian-math-booster/internal/numbering"
	"github.com/1rns/obsidian-math-booster/internal/paths"
	"github.com/1rns/obsidian-math-booster/internal/scanner"
	"github.com/1rns/obsidian-math-booster/internal/settings"
	"github.com/1rns/obsidian-math-booster/internal/vault"
)

// EventType identifies an update event.
type EventType int

const (
	// EventChange signals created or modified document content.
	EventChange EventType = iota
	// EventRename signals a document moved from OldPath to Path.
	EventRename
	// EventDelete signals a removed document.
	EventDelete
	// EventSettings signals a settings change at Node affecting every
	// document whose effective settings are reachable through it.
	EventSettings
)

// Event is one unit of work for the pipeline.
type Event struct {
	Type    EventType
	Path    string // vault-relative markdown path
	OldPath string // rename only
	Node    string // settings only: the changed override node
}

// DocState is the per-document indexing state.
type DocState int

const (
	StateUnindexed DocState = iota
	StateIndexed
	StateStale
)

// Config holds pipeline construction options.
type Config struct {
	VaultPath string
	Database  *index.Database
	Settings  *settings.Store
	Logger    *zap.Logger

	// DebounceDelay is how long a changed document sits in the pending
	// set before it is reprocessed. Default: 100ms.
	DebounceDelay time.Duration

	// OnBatch, when set, is called once per committed batch with the
	// documents that reached their final state. Consumers observe one
	// transition per batch, not one per intermediate document.
	OnBatch func(paths []string)
}

// Pipeline is the incremental update pipeline.
type Pipeline struct {
	vaultPath string
	db        *index.Database
	settings  *settings.Store
	logger    *zap.Logger
	debounce  time.Duration
	onBatch   func(paths []string)

	events chan Event

	mu       sync.Mutex
	pending  map[string]time.Time // changed paths awaiting debounce
	states   map[string]DocState
	scanGen  map[string]uint64 // bumped per change, guards out-of-order upserts
	writeMu  sync.Mutex        // serializes index mutation during Rebuild fan-out
	shutdown chan struct{}

	settMu     sync.Mutex
	settSeq    uint64      // bumped per settings event
	settEvents []settEvent // recent settings events, for scoped supersession
}

// settEvent records one settings change for supersession checks: a later
// event cancels an in-flight propagation only when its node covers the
// propagation's node.
type settEvent struct {
	seq  uint64
	node string
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}
	return &Pipeline{
		vaultPath: cfg.VaultPath,
		db:        cfg.Database,
		settings:  cfg.Settings,
		logger:    logger,
		debounce:  debounce,
		onBatch:   cfg.OnBatch,
		events:    make(chan Event, 256),
		pending:   make(map[string]time.Time),
		states:    make(map[string]DocState),
		scanGen:   make(map[string]uint64),
		shutdown:  make(chan struct{}),
	}
}

// Enqueue submits an event. Change events mark the document stale
// immediately; the content is reprocessed after the debounce delay.
// Settings events advance the supersession generation so an in-flight
// propagation for the same tree is abandoned rather than queued behind.
func (p *Pipeline) Enqueue(ev Event) {
	switch ev.Type {
	case EventChange:
		p.mu.Lock()
		p.pending[ev.Path] = time.Now()
		p.states[ev.Path] = StateStale
		p.scanGen[ev.Path]++
		p.mu.Unlock()
	case EventSettings:
		p.settMu.Lock()
		p.settSeq++
		p.settEvents = append(p.settEvents, settEvent{seq: p.settSeq, node: paths.NormalizeRel(ev.Node)})
		if len(p.settEvents) > 64 {
			// Dropping old records only costs a missed cancellation,
			// never a missed renumbering.
			p.settEvents = p.settEvents[len(p.settEvents)-64:]
		}
		p.settMu.Unlock()
		select {
		case p.events <- ev:
		case <-p.shutdown:
		}
	default:
		select {
		case p.events <- ev:
		case <-p.shutdown:
		}
	}
}

// State returns the document's pipeline state.
func (p *Pipeline) State(relPath string) DocState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[relPath]
}

// Start runs the single-writer event loop until the context is
// cancelled.
func (p *Pipeline) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.debounce / 2)
	defer ticker.Stop()
	defer close(p.shutdown)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.events:
			p.handle(ev)
		case <-ticker.C:
			p.flushPending()
		}
	}
}

func (p *Pipeline) handle(ev Event) {
	switch ev.Type {
	case EventRename:
		if err := p.ApplyRename(ev.OldPath, ev.Path); err != nil {
			p.logger.Warn("rename failed", zap.String("old", ev.OldPath), zap.String("new", ev.Path), zap.Error(err))
			return
		}
		p.notify([]string{ev.Path})
	case EventDelete:
		if err := p.ApplyDelete(ev.Path); err != nil {
			p.logger.Warn("delete failed", zap.String("path", ev.Path), zap.Error(err))
			return
		}
		p.notify([]string{ev.Path})
	case EventSettings:
		done, err := p.ApplySettings(ev.Node)
		if err != nil {
			p.logger.Warn("settings propagation failed", zap.String("node", ev.Node), zap.Error(err))
			return
		}
		if done != nil {
			p.notify(done)
		}
	}
}

// flushPending reprocesses documents whose debounce delay elapsed,
// committing them as one batch from the observer's point of view.
func (p *Pipeline) flushPending() {
	p.mu.Lock()
	nowT := time.Now()
	var ready []string
	for path, at := range p.pending {
		if nowT.Sub(at) >= p.debounce {
			ready = append(ready, path)
			delete(p.pending, path)
		}
	}
	p.mu.Unlock()

	if len(ready) == 0 {
		return
	}

	var done []string
	for _, path := range ready {
		if err := p.ApplyChange(path); err != nil {
			p.logger.Warn("reindex failed", zap.String("path", path), zap.Error(err))
			continue
		}
		done = append(done, path)
	}
	if len(done) > 0 {
		p.notify(done)
	}
}

// ApplyChange scans, numbers, and upserts one document. If the document
// changed again while the scan was in flight, the stale result is
// discarded: the newer scheduled pass wins.
func (p *Pipeline) ApplyChange(relPath string) error {
	relPath = paths.NormalizeRel(relPath)

	if p.settings.IsExcluded(relPath) {
		p.setState(relPath, StateUnindexed)
		return p.withWriteLock(func() error { return p.db.RemoveDocument(relPath) })
	}

	p.mu.Lock()
	gen := p.scanGen[relPath]
	p.mu.Unlock()
	return p.applyChangeAt(relPath, gen)
}

// applyChangeAt performs the scan-number-upsert pass for the given scan
// generation. The upsert is dropped when a newer generation exists by
// commit time.
func (p *Pipeline) applyChangeAt(relPath string, gen uint64) error {
	fullPath := filepath.Join(p.vaultPath, filepath.FromSlash(relPath))
	stat, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return p.ApplyDelete(relPath)
		}
		return err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return err
	}

	res := scanner.Scan(string(content))
	eff := p.settings.Resolve(relPath)
	decls := numbering.Number(res.Declarations, res.Outline, eff)

	return p.withWriteLock(func() error {
		p.mu.Lock()
		current := p.scanGen[relPath]
		p.mu.Unlock()
		if current != gen {
			// A newer change superseded this scan; never apply an
			// out-of-order upsert.
			return nil
		}
		if err := p.db.UpsertDocument(relPath, decls, res.Outline, stat.ModTime().Unix()); err != nil {
			return err
		}
		p.setState(relPath, StateIndexed)
		return nil
	})
}

// ApplyRename rewrites the document's path key. Declarations and their
// numbers are preserved.
func (p *Pipeline) ApplyRename(oldPath, newPath string) error {
	err := p.withWriteLock(func() error { return p.db.RenameDocument(oldPath, newPath) })
	if err == index.ErrDocumentNotFound {
		// Renamed into view (e.g. from an excluded folder): index fresh.
		return p.ApplyChange(newPath)
	}
	if err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.states, paths.NormalizeRel(oldPath))
	p.states[paths.NormalizeRel(newPath)] = StateIndexed
	p.mu.Unlock()
	return nil
}

// ApplyDelete removes a document's entries and discards its state.
func (p *Pipeline) ApplyDelete(relPath string) error {
	relPath = paths.NormalizeRel(relPath)
	if err := p.withWriteLock(func() error { return p.db.RemoveDocument(relPath) }); err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.states, relPath)
	delete(p.scanGen, relPath)
	p.mu.Unlock()
	return nil
}

// ApplySettings re-numbers every document whose effective settings are
// reachable through the changed node. Declarations did not change, so
// documents are re-numbered from their stored declarations and outline
// without re-scanning. Returns the documents brought up to date, or nil
// when a newer settings change superseded this propagation.
func (p *Pipeline) ApplySettings(node string) ([]string, error) {
	p.settMu.Lock()
	gen := p.settSeq
	p.settMu.Unlock()
	return p.applySettingsAt(gen, node)
}

func (p *Pipeline) applySettingsAt(gen uint64, node string) ([]string, error) {
	node = paths.NormalizeRel(node)

	all, err := p.db.AllDocumentPaths()
	if err != nil {
		return nil, err
	}
	affected := settings.AffectedDocuments(node, all)

	var done []string
	for _, relPath := range affected {
		if p.supersededSince(gen, node) {
			// A newer event covering this scope will redo the whole
			// subtree; discard the remainder. Events for disjoint nodes
			// never cancel this propagation.
			p.logger.Debug("settings propagation superseded", zap.String("node", node))
			return nil, nil
		}

		if p.settings.IsExcluded(relPath) {
			if err := p.withWriteLock(func() error { return p.db.RemoveDocument(relPath) }); err != nil {
				return done, err
			}
			p.setState(relPath, StateUnindexed)
			done = append(done, relPath)
			continue
		}

		p.setState(relPath, StateStale)
		if err := p.renumber(relPath); err != nil {
			return done, err
		}
		p.setState(relPath, StateIndexed)
		done = append(done, relPath)
	}

	return done, nil
}

func (p *Pipeline) renumber(relPath string) error {
	decls, outline, err := p.db.DocumentDeclarations(relPath)
	if err == index.ErrDocumentNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	eff := p.settings.Resolve(relPath)
	numbered := numbering.Number(decls, outline, eff)

	return p.withWriteLock(func() error { return p.db.UpdateNumbers(relPath, numbered) })
}

// Rebuild re-indexes the whole vault: documents are scanned and numbered
// in parallel, upserts are serialized, and entries for deleted or
// excluded documents are dropped. Returns the number of indexed
// documents.
func (p *Pipeline) Rebuild(ctx context.Context) (int, error) {
	files, err := vault.ListMarkdownFiles(p.vaultPath)
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var indexed atomic.Int64
	for _, relPath := range files {
		relPath := relPath
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if p.settings.IsExcluded(relPath) {
				return p.withWriteLock(func() error { return p.db.RemoveDocument(relPath) })
			}
			if err := p.ApplyChange(relPath); err != nil {
				p.logger.Warn("rebuild: document failed", zap.String("path", relPath), zap.Error(err))
				return nil // keep going; one bad file does not abort the rebuild
			}
			indexed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(indexed.Load()), err
	}

	if _, err := p.db.RemoveDeletedFiles(p.vaultPath); err != nil {
		return int(indexed.Load()), err
	}
	if err := p.db.Analyze(); err != nil {
		p.logger.Debug("analyze failed", zap.Error(err))
	}

	return int(indexed.Load()), nil
}

// supersededSince reports whether a settings event newer than gen covers
// node. The root node ("") covers everything; a descendant event does
// not cancel a broader in-flight propagation.
func (p *Pipeline) supersededSince(gen uint64, node string) bool {
	p.settMu.Lock()
	defer p.settMu.Unlock()
	for i := len(p.settEvents) - 1; i >= 0; i-- {
		ev := p.settEvents[i]
		if ev.seq <= gen {
			break
		}
		if paths.IsDescendant(ev.node, node) {
			return true
		}
	}
	return false
}

func (p *Pipeline) withWriteLock(fn func() error) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return fn()
}

func (p *Pipeline) setState(relPath string, s DocState) {
	p.mu.Lock()
	if s == StateUnindexed {
		delete(p.states, relPath)
	} else {
		p.states[relPath] = s
	}
	p.mu.Unlock()
}

func (p *Pipeline) notify(done []string) {
	if p.onBatch != nil {
		p.onBatch(done)
	}
}
