package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wrtbot/internal/metrics"
)

// countingSnapshot returns a snapshot source whose counters advance on
// every call, so each tick sees positive deltas.
func countingSnapshot(step uint64) func([]string) metrics.Snapshot {
	var calls uint64
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	return func(ifaces []string) metrics.Snapshot {
		calls++
		s := metrics.Snapshot{
			Time:     base.Add(time.Duration(calls) * 2 * time.Second),
			CPUTotal: calls * 400,
			CPUIdle:  calls * 200,
			MemTotal: 1024 * 1024 * 1024,
			MemAvail: 512 * 1024 * 1024,
			Ifaces:   make(map[string]metrics.IfaceCounters, len(ifaces)),
		}
		for _, name := range ifaces {
			s.Ifaces[name] = metrics.IfaceCounters{Rx: calls * step, Tx: calls * step / 2}
		}
		return s
	}
}

func TestStartLiveSessionIsIdempotent(t *testing.T) {
	ctx := newTestAppContext(t)
	bot := &fakeBot{}

	startLiveSession(ctx, bot, 42, 7, []string{"eth0"})
	if !ctx.Live.Active(42) {
		t.Fatal("session not registered after start")
	}
	if !ctx.Engine.Has(liveJobName(42)) {
		t.Fatal("tick job not registered after start")
	}
	first := bot.sentCount()

	startLiveSession(ctx, bot, 42, 9, []string{"eth0"})
	if n := bot.sentCount(); n != first {
		t.Fatalf("second start sent %d extra messages, want 0", n-first)
	}
	sess, _ := ctx.Live.View(42)
	if sess.MessageID != 7 {
		t.Errorf("second start replaced the session message, MessageID = %d, want 7", sess.MessageID)
	}
}

func TestTickLiveSessionEditsFrame(t *testing.T) {
	ctx := newTestAppContext(t)
	ctx.Snapshot = countingSnapshot(4096)
	bot := &fakeBot{}

	startLiveSession(ctx, bot, 42, 7, []string{"eth0"})
	before := bot.sentCount()

	tickLiveSession(ctx, bot, 42)
	texts := bot.sentTexts()
	if len(texts) != before+1 {
		t.Fatalf("tick sent %d messages, want 1", len(texts)-before)
	}
	frame := texts[len(texts)-1]
	if !strings.Contains(frame, "LIVE DASHBOARD") {
		t.Errorf("frame missing header: %q", frame)
	}
	if !strings.Contains(frame, "Bandwidth (eth0)") {
		t.Errorf("frame missing interface section: %q", frame)
	}
	if !ctx.Live.Active(42) {
		t.Error("session dropped by a successful tick")
	}
}

func TestTickRetainsSnapshotBetweenFrames(t *testing.T) {
	ctx := newTestAppContext(t)
	ctx.Snapshot = countingSnapshot(4096)
	bot := &fakeBot{}

	startLiveSession(ctx, bot, 42, 7, []string{"eth0"})
	tickLiveSession(ctx, bot, 42)
	sess, _ := ctx.Live.View(42)
	firstTime := sess.Prev.Time

	tickLiveSession(ctx, bot, 42)
	sess, _ = ctx.Live.View(42)
	if !sess.Prev.Time.After(firstTime) {
		t.Error("retained snapshot not advanced by the second tick")
	}
}

func TestTickStopsSilentlyWhenMessageGone(t *testing.T) {
	ctx := newTestAppContext(t)
	ctx.Snapshot = countingSnapshot(4096)
	bot := &fakeBot{}

	startLiveSession(ctx, bot, 42, 7, []string{"eth0"})
	before := bot.sentCount()

	bot.setSendErr(&tgbotapi.Error{Code: 400, Message: "Bad Request: message to edit not found"})
	tickLiveSession(ctx, bot, 42)

	if ctx.Live.Active(42) {
		t.Error("session still active after its message disappeared")
	}
	if ctx.Engine.Has(liveJobName(42)) {
		t.Error("tick job still registered after stop")
	}
	bot.setSendErr(nil)
	if n := bot.sentCount(); n != before {
		t.Fatalf("gone-message stop sent %d messages, want 0", n-before)
	}
}

func TestTickStopsAndNotifiesOnDeliveryFailure(t *testing.T) {
	ctx := newTestAppContext(t)
	ctx.Snapshot = countingSnapshot(4096)
	inner := &fakeBot{}
	bot := &failOnceBot{fakeBot: inner}

	startLiveSession(ctx, inner, 42, 7, []string{"eth0"})
	before := inner.sentCount()

	// The frame edit fails with a transport error; the stop notice that
	// follows goes out on the recovered connection.
	tickLiveSession(ctx, bot, 42)

	if ctx.Live.Active(42) {
		t.Error("session still active after a delivery failure")
	}
	if ctx.Engine.Has(liveJobName(42)) {
		t.Error("tick job still registered after a delivery failure")
	}
	texts := inner.sentTexts()
	if len(texts) != before+1 {
		t.Fatalf("failure path sent %d messages, want 1 stop notice", len(texts)-before)
	}
	if last := texts[len(texts)-1]; !strings.Contains(last, "stopped") {
		t.Errorf("failure notice = %q", last)
	}
}

// failOnceBot fails the first Send and delegates afterwards.
type failOnceBot struct {
	*fakeBot
	failed bool
}

func (b *failOnceBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if !b.failed {
		b.failed = true
		return tgbotapi.Message{}, errors.New("connection reset")
	}
	return b.fakeBot.Send(c)
}

func TestTickWithoutSessionCancelsJob(t *testing.T) {
	ctx := newTestAppContext(t)
	bot := &fakeBot{}

	// Simulate a tick racing a stop: the job fires but the session is gone.
	ctx.Engine.Every(liveJobName(42), time.Minute, func() {})
	tickLiveSession(ctx, bot, 42)
	if ctx.Engine.Has(liveJobName(42)) {
		t.Error("orphaned tick job not cancelled")
	}
	if n := bot.sentCount(); n != 0 {
		t.Fatalf("orphan tick sent %d messages, want 0", n)
	}
}

func TestStopLiveSessionIsIdempotent(t *testing.T) {
	ctx := newTestAppContext(t)
	bot := &fakeBot{}

	startLiveSession(ctx, bot, 42, 7, []string{"eth0"})
	if !stopLiveSession(ctx, 42) {
		t.Fatal("first stop reported no session")
	}
	if stopLiveSession(ctx, 42) {
		t.Fatal("second stop reported a session")
	}
	if ctx.Engine.Has(liveJobName(42)) {
		t.Error("tick job survived stop")
	}
}
