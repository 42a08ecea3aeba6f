// Package schedule is a registry of named recurring and one-shot jobs.
// Recurring and daily jobs ride on robfig/cron; one-shot delays use plain
// timers tracked under the same namespace. Registering a name that already
// has a job replaces it, so a given name never has two live instances.
package schedule

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Engine owns the cron scheduler and the name → job registry.
type Engine struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	timers  map[string]*time.Timer
	log     *slog.Logger
}

// New builds an Engine in the given location. A panicking callback is
// recovered and logged, and a slow callback is skipped rather than run
// concurrently with itself.
func New(loc *time.Location, log *slog.Logger) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	cl := cronLogger{log}
	return &Engine{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		entries: make(map[string]cron.EntryID),
		timers:  make(map[string]*time.Timer),
		log:     log,
	}
}

// Start begins dispatching scheduled jobs.
func (e *Engine) Start() { e.cron.Start() }

// Stop stops the cron dispatcher and drops all pending one-shot timers.
// Already-running callbacks finish on their own.
func (e *Engine) Stop() {
	e.cron.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, t := range e.timers {
		t.Stop()
		delete(e.timers, name)
	}
}

// Every registers fn to run on a fixed interval under the given name,
// replacing any existing job with that name.
func (e *Engine) Every(name string, interval time.Duration, fn func()) {
	e.add(name, fmt.Sprintf("@every %s", interval), fn)
}

// Daily registers fn to run once a day at the given wall-clock time,
// replacing any existing job with that name.
func (e *Engine) Daily(name string, hour, minute int, fn func()) {
	e.add(name, fmt.Sprintf("%d %d * * *", minute, hour), fn)
}

func (e *Engine) add(name, spec string, fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked(name)

	id, err := e.cron.AddFunc(spec, fn)
	if err != nil {
		e.log.Error("job registration failed", "job", name, "spec", spec, "err", err)
		return
	}
	e.entries[name] = id
}

// Once registers fn to run a single time after delay, replacing any
// existing job with that name. The name is released before fn runs, so a
// callback may re-register itself.
func (e *Engine) Once(name string, delay time.Duration, fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked(name)

	e.timers[name] = time.AfterFunc(delay, func() {
		e.mu.Lock()
		delete(e.timers, name)
		e.mu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("one-shot job panicked", "job", name, "panic", r)
			}
		}()
		fn()
	})
}

// Cancel removes the named job, recurring or one-shot. It reports whether
// a job was actually registered under that name.
func (e *Engine) Cancel(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelLocked(name)
}

func (e *Engine) cancelLocked(name string) bool {
	found := false
	if id, ok := e.entries[name]; ok {
		e.cron.Remove(id)
		delete(e.entries, name)
		found = true
	}
	if t, ok := e.timers[name]; ok {
		t.Stop()
		delete(e.timers, name)
		found = true
	}
	return found
}

// Has reports whether a job is registered under the given name.
func (e *Engine) Has(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, entry := e.entries[name]
	_, timer := e.timers[name]
	return entry || timer
}

// Next returns the next scheduled firing of a recurring or daily job.
// The zero time means the name is unknown or a one-shot.
func (e *Engine) Next(name string) time.Time {
	e.mu.Lock()
	id, ok := e.entries[name]
	e.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return e.cron.Entry(id).Next
}

// cronLogger adapts slog to cron's logging interface.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug(msg, kv...)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error(msg, append(kv, "err", err)...)
}
