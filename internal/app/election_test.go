package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/holdfast-io/holdfast/internal/ports"
	"github.com/holdfast-io/holdfast/pkg/log"
)

// scriptedLock plays back Acquire and IsAlive results from fixed scripts.
// Once a script is exhausted the final value repeats.
type scriptedLock struct {
	mu       sync.Mutex
	acquire  []bool
	alive    []bool
	acquired chan struct{}
	err      error
	releases int
}

func newScriptedLock(acquire, alive []bool) *scriptedLock {
	return &scriptedLock{acquire: acquire, alive: alive, acquired: make(chan struct{}, 64)}
}

func (l *scriptedLock) Acquire() (bool, error) {
	l.mu.Lock()
	held := pop(&l.acquire)
	err := l.err
	l.mu.Unlock()
	select {
	case l.acquired <- struct{}{}:
	default:
	}
	if err != nil {
		return false, err
	}
	return held, nil
}

func (l *scriptedLock) IsAlive() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return pop(&l.alive), nil
}

func (l *scriptedLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
}

func pop(script *[]bool) bool {
	if len(*script) == 0 {
		return false
	}
	v := (*script)[0]
	if len(*script) > 1 {
		*script = (*script)[1:]
	}
	return v
}

func runElection(t *testing.T, e *Election) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx)
	}()
	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("election loop did not exit after cancellation")
		}
	}
}

func waitLevel(t *testing.T, c *fakeContainer, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case level := <-c.levelSet:
			if level == want {
				return
			}
		case <-deadline:
			t.Fatalf("readiness level %d never applied; got %v", want, c.recordedLevels())
		}
	}
}

func TestElection_RaisesOnceAfterRepeatedFailures(t *testing.T) {
	lock := newScriptedLock([]bool{false, false, false, true}, []bool{true})
	c := newFakeContainer()

	var heldCalls int
	var mu sync.Mutex
	e := NewElection(ElectionConfig{Delay: time.Millisecond, StandbyLevel: 1, ActiveLevel: 100},
		lock, c, NewReadiness(c, log.NewNoopLogger()), log.NewNoopLogger(),
		func() { mu.Lock(); heldCalls++; mu.Unlock() }, nil)

	cancel := runElection(t, e)
	waitLevel(t, c, 100)
	cancel()

	levels := c.recordedLevels()
	if len(levels) != 1 || levels[0] != 100 {
		t.Errorf("readiness calls = %v, want exactly one raise to 100", levels)
	}
	mu.Lock()
	defer mu.Unlock()
	if heldCalls != 1 {
		t.Errorf("onHeld calls = %d, want 1", heldCalls)
	}
}

func TestElection_DemotesWhenLockLost(t *testing.T) {
	// Held once, lost on the second liveness check, never re-acquired.
	lock := newScriptedLock([]bool{true, false}, []bool{true, false})
	c := newFakeContainer()

	lost := make(chan struct{}, 1)
	e := NewElection(ElectionConfig{Delay: time.Millisecond, StandbyLevel: 1, ActiveLevel: 100},
		lock, c, NewReadiness(c, log.NewNoopLogger()), log.NewNoopLogger(),
		nil, func() { lost <- struct{}{} })

	cancel := runElection(t, e)
	select {
	case <-lost:
	case <-time.After(2 * time.Second):
		t.Fatal("onLost never fired")
	}
	cancel()

	levels := c.recordedLevels()
	if len(levels) != 2 || levels[0] != 100 || levels[1] != 1 {
		t.Errorf("readiness calls = %v, want [100 1]", levels)
	}
}

func TestElection_NoDemotionUnlessContainerActive(t *testing.T) {
	lock := newScriptedLock([]bool{true, false}, []bool{false})
	c := newFakeContainer()
	c.setState(ports.ContainerStopping)

	e := NewElection(ElectionConfig{Delay: time.Millisecond, StandbyLevel: 1, ActiveLevel: 100},
		lock, c, NewReadiness(c, log.NewNoopLogger()), log.NewNoopLogger(),
		nil, func() { t.Error("onLost fired while container was stopping") })

	cancel := runElection(t, e)
	waitLevel(t, c, 100)

	// Let the loop observe the lost lock and come back around to polling.
	deadline := time.After(2 * time.Second)
	for calls := 0; calls < 3; calls++ {
		select {
		case <-lock.acquired:
		case <-deadline:
			t.Fatal("election loop never resumed polling")
		}
	}
	cancel()

	levels := c.recordedLevels()
	if len(levels) != 1 || levels[0] != 100 {
		t.Errorf("readiness calls = %v, want raise only", levels)
	}
}

func TestElection_AcquireErrorTreatedAsNotHeld(t *testing.T) {
	lock := newScriptedLock([]bool{true}, []bool{true})
	lock.err = errors.New("backend unavailable")
	c := newFakeContainer()

	e := NewElection(ElectionConfig{Delay: time.Millisecond, StandbyLevel: 1, ActiveLevel: 100},
		lock, c, NewReadiness(c, log.NewNoopLogger()), log.NewNoopLogger(), nil, nil)

	cancel := runElection(t, e)
	deadline := time.After(2 * time.Second)
	for calls := 0; calls < 3; calls++ {
		select {
		case <-lock.acquired:
		case <-deadline:
			t.Fatal("election loop stopped polling after acquire errors")
		}
	}
	cancel()

	if levels := c.recordedLevels(); len(levels) != 0 {
		t.Errorf("readiness calls = %v, want none while the backend errors", levels)
	}
}

func TestElection_CancellationExitsPromptly(t *testing.T) {
	lock := newScriptedLock([]bool{false}, nil)
	c := newFakeContainer()

	e := NewElection(ElectionConfig{Delay: 50 * time.Millisecond, StandbyLevel: 1, ActiveLevel: 100},
		lock, c, NewReadiness(c, log.NewNoopLogger()), log.NewNoopLogger(), nil, nil)

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx)
	}()

	select {
	case <-lock.acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("election never polled")
	}
	start := time.Now()
	stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("election loop did not exit after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("exit took %v, want well under the poll delay bound", elapsed)
	}
}
