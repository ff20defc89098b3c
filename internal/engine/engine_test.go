package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/asheshgoplani/workdeck/internal/workspace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// blockingReleaser holds every release until unblock is closed.
type blockingReleaser struct {
	mu      sync.Mutex
	unblock chan struct{}
	started chan string
	done    []string
}

func newBlockingReleaser() *blockingReleaser {
	return &blockingReleaser{unblock: make(chan struct{}), started: make(chan string, 16)}
}

func (r *blockingReleaser) Release(_ context.Context, paneID string) error {
	r.started <- paneID
	<-r.unblock
	r.mu.Lock()
	r.done = append(r.done, paneID)
	r.mu.Unlock()
	return nil
}

func (r *blockingReleaser) released() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.done...)
}

func TestDoDoesNotAwaitRelease(t *testing.T) {
	rel := newBlockingReleaser()
	e := New(workspace.NewStore(nil), WithReleaser(rel))

	add := e.Do(func(s *workspace.Store) workspace.Outcome {
		return s.AddTab("n1", workspace.PaneOptions{})
	})

	out := e.Do(func(s *workspace.Store) workspace.Outcome { return s.RemoveTab(add.TabID) })
	require.True(t, out.Changed)

	// The state already moved on while the release is still pending.
	assert.Equal(t, 0, e.Snapshot().TabCount())
	select {
	case id := <-rel.started:
		assert.Equal(t, add.PaneID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("release was never dispatched")
	}
	assert.Empty(t, rel.released())

	close(rel.unblock)
	e.Wait()
	assert.Equal(t, []string{add.PaneID}, rel.released())
}

func TestNonTerminalPanesAreNotReleased(t *testing.T) {
	rel := newBlockingReleaser()
	close(rel.unblock)
	e := New(workspace.NewStore(nil), WithReleaser(rel))

	add := e.Do(func(s *workspace.Store) workspace.Outcome {
		return s.AddTabWithMultiplePanes("n1", []workspace.PaneOptions{
			{Type: workspace.PaneTypeDashboard},
			{Type: workspace.PaneTypeFileViewer, FileViewer: &workspace.FileViewer{FilePath: "a"}},
		})
	})
	e.Do(func(s *workspace.Store) workspace.Outcome { return s.RemoveTab(add.TabID) })
	e.Wait()
	assert.Empty(t, rel.released())
}

func TestSaveAfterEveryChange(t *testing.T) {
	var mu sync.Mutex
	var saved []int
	e := New(workspace.NewStore(nil), WithSaver(func(_ context.Context, st *workspace.State) error {
		mu.Lock()
		saved = append(saved, st.TabCount())
		mu.Unlock()
		return nil
	}))

	e.Do(func(s *workspace.Store) workspace.Outcome { return s.AddTab("n1", workspace.PaneOptions{}) })
	e.Do(func(s *workspace.Store) workspace.Outcome { return s.AddTab("n1", workspace.PaneOptions{}) })
	e.Do(func(s *workspace.Store) workspace.Outcome { return s.RemoveTab("missing") })

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, saved, "no-op commands are not saved")
}

func TestSaveFailureIsLoggedNotFatal(t *testing.T) {
	calls := 0
	e := New(workspace.NewStore(nil), WithSaver(func(context.Context, *workspace.State) error {
		calls++
		return errors.New("disk full")
	}))
	out := e.Do(func(s *workspace.Store) workspace.Outcome { return s.AddTab("n1", workspace.PaneOptions{}) })
	assert.True(t, out.Changed)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, e.Snapshot().TabCount())
}

func TestSubscribe(t *testing.T) {
	rel := newBlockingReleaser()
	close(rel.unblock)
	e := New(workspace.NewStore(nil), WithReleaser(rel))
	events, cancel := e.Subscribe(4)
	defer cancel()

	add := e.Do(func(s *workspace.Store) workspace.Outcome { return s.AddTab("n1", workspace.PaneOptions{}) })
	e.Do(func(s *workspace.Store) workspace.Outcome { return s.RemovePane(add.PaneID) })
	e.Wait()

	first := <-events
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, add.TabID, first.TabID)
	second := <-events
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, []string{add.PaneID}, second.Released)
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	e := New(workspace.NewStore(nil))
	events, cancel := e.Subscribe(1)
	cancel()
	cancel()
	_, ok := <-events
	assert.False(t, ok)

	// Publishing after cancel must not panic.
	e.Do(func(s *workspace.Store) workspace.Outcome { return s.AddTab("n1", workspace.PaneOptions{}) })
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	e := New(workspace.NewStore(nil))
	events, cancel := e.Subscribe(1)
	defer cancel()

	for i := 0; i < 3; i++ {
		e.Do(func(s *workspace.Store) workspace.Outcome { return s.AddTab("n1", workspace.PaneOptions{}) })
	}
	ev := <-events
	assert.Equal(t, uint64(1), ev.Seq)
	select {
	case ev := <-events:
		t.Fatalf("unexpected buffered event %d", ev.Seq)
	default:
	}
}

func TestConcurrentCommands(t *testing.T) {
	e := New(workspace.NewStore(nil))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Do(func(s *workspace.Store) workspace.Outcome { return s.AddTab("n1", workspace.PaneOptions{}) })
		}()
	}
	wg.Wait()
	st := e.Snapshot()
	assert.Equal(t, 20, st.TabCount())
	assert.Len(t, st.History("n1"), 19)
}

func TestReplace(t *testing.T) {
	e := New(workspace.NewStore(nil))
	e.Do(func(s *workspace.Store) workspace.Outcome { return s.AddTab("n1", workspace.PaneOptions{}) })
	events, cancel := e.Subscribe(1)
	defer cancel()

	e.Replace(nil)
	assert.Equal(t, 0, e.Snapshot().TabCount())
	ev := <-events
	assert.Equal(t, uint64(2), ev.Seq)
}
