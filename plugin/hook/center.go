package hook

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrInterrupt signals that a hook wants to stop further processing.
var ErrInterrupt = errors.New("hook interrupted")

// Event names.
const (
	AfterQuestGenerate = "after_quest_generate"
	OnQuestComplete    = "on_quest_complete"
	OnProfileSaved     = "on_profile_saved"
)

// Event is the payload passed through the hooks of one Trigger call.
// Handlers may mutate Data for handlers that run after them.
type Event struct {
	Name      string      `json:"event"`
	AccountID int64       `json:"account_id"`
	Stage     string      `json:"stage,omitempty"`
	QuestID   string      `json:"quest_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	At        time.Time   `json:"at"`
}

// HookFn is a hook handler. Returning ErrInterrupt stops the chain; any other
// error is collected and the chain continues.
type HookFn func(ctx context.Context, ev *Event) error

type hookEntry struct {
	priority int
	fn       HookFn
	name     string
}

// HookCenter manages event hook registrations.
type HookCenter struct {
	mu    sync.RWMutex
	hooks map[string][]*hookEntry
}

// NewHookCenter creates a new HookCenter.
func NewHookCenter() *HookCenter {
	return &HookCenter{hooks: make(map[string][]*hookEntry)}
}

// Register adds fn for event with the given priority (lower runs first).
// name is used for Unregister. Equal priorities keep registration order.
func (hc *HookCenter) Register(event string, priority int, name string, fn HookFn) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	entries := append(hc.hooks[event], &hookEntry{priority: priority, fn: fn, name: name})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	hc.hooks[event] = entries
}

// Unregister removes all hooks with the given name for the given event.
func (hc *HookCenter) Unregister(event, name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.hooks[event] = without(hc.hooks[event], name)
}

// UnregisterAll removes all hooks registered with the given name across all events.
func (hc *HookCenter) UnregisterAll(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for event, entries := range hc.hooks {
		hc.hooks[event] = without(entries, name)
	}
}

func without(entries []*hookEntry, name string) []*hookEntry {
	n := 0
	for _, e := range entries {
		if e.name != name {
			entries[n] = e
			n++
		}
	}
	return entries[:n]
}

// Count returns the number of hooks registered for event.
func (hc *HookCenter) Count(event string) int {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return len(hc.hooks[event])
}

// Trigger runs every hook registered for ev.Name in priority order.
// A nil HookCenter is a no-op.
func (hc *HookCenter) Trigger(ctx context.Context, ev *Event) error {
	if hc == nil || ev == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	hc.mu.RLock()
	entries := make([]*hookEntry, len(hc.hooks[ev.Name]))
	copy(entries, hc.hooks[ev.Name])
	hc.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		err := e.fn(ctx, ev)
		if errors.Is(err, ErrInterrupt) {
			return err
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
