package main

import (
	"sync"
	"time"

	"wrtbot/internal/metrics"
	"wrtbot/internal/schedule"
)

// AppContext holds the application dependencies and state. Each piece of
// retained cross-tick state lives in its own typed struct behind its own
// mutex, so independent jobs never collide on a shared untyped bag.
type AppContext struct {
	Config   *Config
	Engine   *schedule.Engine
	Live     *LiveState
	Watch    *WatchState
	Devices  *DeviceStore
	Location *time.Location

	// Snapshot reads fresh counters for the given interfaces.
	// Swapped for a synthetic source in tests.
	Snapshot func(ifaces []string) metrics.Snapshot
}

func newAppContext(cfg *Config) *AppContext {
	loc := cfg.Location()
	return &AppContext{
		Config:   cfg,
		Engine:   schedule.New(loc, nil),
		Live:     &LiveState{sessions: make(map[int64]*LiveSession)},
		Watch:    &WatchState{},
		Devices:  newDeviceStore(cfg.Files.KnownDevices, cfg.Files.Aliases),
		Location: loc,
		Snapshot: metrics.Take,
	}
}

// Capacities builds the sampler capacity table from configuration.
func (ctx *AppContext) Capacities() metrics.Capacities {
	caps := metrics.Capacities{
		Default: metrics.Capacity{
			DownMbps: ctx.Config.Network.DefaultDownMbps,
			UpMbps:   ctx.Config.Network.DefaultUpMbps,
		},
		DiskBps: ctx.Config.Network.MaxDiskBps,
	}
	if len(ctx.Config.Network.IfaceSpeeds) > 0 {
		caps.Ifaces = make(map[string]metrics.Capacity, len(ctx.Config.Network.IfaceSpeeds))
		for name, s := range ctx.Config.Network.IfaceSpeeds {
			caps.Ifaces[name] = metrics.Capacity{DownMbps: s.DownMbps, UpMbps: s.UpMbps}
		}
	}
	return caps
}

// LiveSession is the retained state of one live dashboard: the message
// being refreshed, the tracked interfaces and the previous snapshot.
type LiveSession struct {
	ChatID    int64
	MessageID int
	Ifaces    []string
	Prev      metrics.Snapshot
}

// LiveState owns the zero-or-one live session per chat.
type LiveState struct {
	mu       sync.Mutex
	sessions map[int64]*LiveSession
}

// View returns a copy of the session for a chat, if one exists.
func (l *LiveState) View(chatID int64) (LiveSession, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[chatID]
	if !ok {
		return LiveSession{}, false
	}
	return *s, true
}

// Active reports whether a chat has a live session.
func (l *LiveState) Active(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.sessions[chatID]
	return ok
}

// PutIfAbsent stores a session unless one already exists for the chat.
// It returns the session now registered and whether it was inserted.
func (l *LiveState) PutIfAbsent(s *LiveSession) (*LiveSession, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.sessions[s.ChatID]; ok {
		return existing, false
	}
	l.sessions[s.ChatID] = s
	return s, true
}

// UpdateSnapshot replaces the retained snapshot, but only if the session
// is still registered: a concurrent stop wins over an in-flight tick.
func (l *LiveState) UpdateSnapshot(chatID int64, snap metrics.Snapshot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[chatID]
	if !ok {
		return false
	}
	s.Prev = snap
	return true
}

// Drop removes the session for a chat, reporting whether one existed.
func (l *LiveState) Drop(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sessions[chatID]; !ok {
		return false
	}
	delete(l.sessions, chatID)
	return true
}

// WatchState holds the retained values of the background watchers.
// All of it is volatile; only the known-device set survives restarts.
type WatchState struct {
	mu sync.Mutex

	// WAN watcher: last observed address, and whether a first
	// observation has seeded it.
	wanSeeded bool
	lastWANIP string

	// CPU hysteresis: when the sustained-high window started and
	// whether the alert for the current episode already fired.
	cpuHighSince time.Time
	cpuAlertSent bool
}

// WANObserve records the current WAN address and reports the previous one.
// seeded is false on the very first observation, which must not alert.
func (w *WatchState) WANObserve(ip string) (prev string, seeded bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, seeded = w.lastWANIP, w.wanSeeded
	w.lastWANIP = ip
	w.wanSeeded = true
	return prev, seeded
}
