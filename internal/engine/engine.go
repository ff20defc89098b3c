// Package engine owns the single workspace store instance. Commands run
// one at a time under a lock; their side effects (terminal release, save,
// change notification) run after the lock is dropped, and release calls
// are never awaited.
package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// Releaser frees the external resource behind a terminal pane.
type Releaser interface {
	Release(ctx context.Context, paneID string) error
}

// SaveFunc persists a state snapshot.
type SaveFunc func(ctx context.Context, st *workspace.State) error

// Event describes one committed change.
type Event struct {
	Seq      uint64    `json:"seq"`
	TabID    string    `json:"tabId,omitempty"`
	PaneID   string    `json:"paneId,omitempty"`
	PaneIDs  []string  `json:"paneIds,omitempty"`
	Released []string  `json:"released,omitempty"`
	At       time.Time `json:"at"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithReleaser sets the terminal releaser. Without one, release intents
// are logged and dropped.
func WithReleaser(r Releaser) Option {
	return func(e *Engine) { e.releaser = r }
}

// WithSaver sets the persistence hook run after every change.
func WithSaver(fn SaveFunc) Option {
	return func(e *Engine) { e.save = fn }
}

// WithContext sets the parent context of release and save calls.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) { e.ctx = ctx }
}

// Engine serializes commands against one workspace.Store.
type Engine struct {
	mu    sync.Mutex
	store *workspace.Store
	seq   uint64

	ctx      context.Context
	releaser Releaser
	save     SaveFunc
	releases sync.WaitGroup

	saveMu   sync.Mutex
	savedSeq uint64

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New wraps store.
func New(store *workspace.Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		ctx:   context.Background(),
		subs:  make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns the current immutable state.
func (e *Engine) Snapshot() *workspace.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.State()
}

// Do runs one command. When it changed the state, intents are dispatched
// fire-and-forget, the new state is saved and subscribers are notified.
func (e *Engine) Do(cmd func(*workspace.Store) workspace.Outcome) workspace.Outcome {
	e.mu.Lock()
	out := cmd(e.store)
	if !out.Changed {
		e.mu.Unlock()
		return out
	}
	e.seq++
	seq := e.seq
	st := e.store.State()
	e.mu.Unlock()

	released := e.dispatch(out.Intents)
	e.persist(seq, st)
	e.publish(Event{
		Seq:      seq,
		TabID:    out.TabID,
		PaneID:   out.PaneID,
		PaneIDs:  out.PaneIDs,
		Released: released,
		At:       time.Now().UTC(),
	})
	return out
}

// Replace swaps in a whole state (e.g. after a reload) and notifies
// subscribers. It is not saved.
func (e *Engine) Replace(st *workspace.State) {
	e.mu.Lock()
	e.store.Replace(st)
	e.seq++
	seq := e.seq
	e.mu.Unlock()
	e.publish(Event{Seq: seq, At: time.Now().UTC()})
}

func (e *Engine) dispatch(intents []workspace.Intent) []string {
	var released []string
	for _, in := range intents {
		if in.Kind != workspace.IntentReleaseTerminal {
			continue
		}
		released = append(released, in.PaneID)
		if e.releaser == nil {
			log.Printf("[ENGINE] No releaser configured, dropping release of pane %s", in.PaneID)
			continue
		}
		e.releases.Add(1)
		go func(paneID string) {
			defer e.releases.Done()
			if err := e.releaser.Release(e.ctx, paneID); err != nil {
				log.Printf("[ENGINE] Release of pane %s failed: %v", paneID, err)
			}
		}(in.PaneID)
	}
	return released
}

// persist saves st unless a newer state has already been saved.
func (e *Engine) persist(seq uint64, st *workspace.State) {
	if e.save == nil {
		return
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if seq <= e.savedSeq {
		return
	}
	if err := e.save(e.ctx, st); err != nil {
		log.Printf("[ENGINE] Save failed: %v", err)
		return
	}
	e.savedSeq = seq
}

// Subscribe returns a channel of change events and a cancel function. A
// subscriber that falls more than buffer events behind misses events.
func (e *Engine) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subs, id)
			e.subMu.Unlock()
			close(ch)
		})
	}
}

func (e *Engine) publish(ev Event) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for id, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[ENGINE] Subscriber %d is behind, dropped event %d", id, ev.Seq)
		}
	}
}

// Wait blocks until every dispatched release has returned. Commands never
// call it; it exists for shutdown and tests.
func (e *Engine) Wait() {
	e.releases.Wait()
}
