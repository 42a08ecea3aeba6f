package main

import (
	"strings"
	"testing"
	"time"
)

func TestWANWatcherSeedsSilently(t *testing.T) {
	ctx := newTestAppContext(t)
	bot := &fakeBot{}

	checkWANStatus(ctx, bot, "203.0.113.5")
	if n := bot.sentCount(); n != 0 {
		t.Fatalf("first observation sent %d messages, want 0", n)
	}
}

func TestWANWatcherNotifiesOnChangeAndLoss(t *testing.T) {
	ctx := newTestAppContext(t)
	bot := &fakeBot{}

	checkWANStatus(ctx, bot, "203.0.113.5")
	checkWANStatus(ctx, bot, "203.0.113.5")
	if n := bot.sentCount(); n != 0 {
		t.Fatalf("unchanged address sent %d messages, want 0", n)
	}

	checkWANStatus(ctx, bot, "203.0.113.9")
	texts := bot.sentTexts()
	if len(texts) != 1 {
		t.Fatalf("address change sent %d messages, want 1", len(texts))
	}
	if !strings.Contains(texts[0], "203.0.113.5") || !strings.Contains(texts[0], "203.0.113.9") {
		t.Errorf("change notice missing old/new address: %q", texts[0])
	}

	checkWANStatus(ctx, bot, wanNone)
	texts = bot.sentTexts()
	if len(texts) != 2 {
		t.Fatalf("loss sent %d total messages, want 2", len(texts))
	}
	if !strings.Contains(texts[1], "WAN connection lost") {
		t.Errorf("loss notice = %q, want connection-lost warning", texts[1])
	}

	// Losing an already-lost connection is not a change.
	checkWANStatus(ctx, bot, wanNone)
	if n := bot.sentCount(); n != 2 {
		t.Fatalf("repeated loss sent %d total messages, want 2", n)
	}
}

func TestNewDeviceWatcherSeedsWithoutAlerting(t *testing.T) {
	ctx := newTestAppContext(t)
	bot := &fakeBot{}

	devices := []Device{
		{MAC: "AA:BB:CC:00:00:01", IP: "192.168.1.10", Name: "laptop"},
		{MAC: "AA:BB:CC:00:00:02", IP: "192.168.1.11", Name: "phone"},
		{MAC: "AA:BB:CC:00:00:03", IP: "192.168.1.12", Name: "tv"},
	}
	checkNewDevices(ctx, bot, devices)
	if n := bot.sentCount(); n != 0 {
		t.Fatalf("seeding run sent %d messages, want 0", n)
	}
	if known := ctx.Devices.KnownSet(); len(known) != 3 {
		t.Fatalf("seeded known-set has %d entries, want 3", len(known))
	}

	// Same set again: nothing new.
	checkNewDevices(ctx, bot, devices)
	if n := bot.sentCount(); n != 0 {
		t.Fatalf("repeat run sent %d messages, want 0", n)
	}
}

func TestNewDeviceWatcherAlertsOncePerNewDevice(t *testing.T) {
	ctx := newTestAppContext(t)
	bot := &fakeBot{}

	base := []Device{
		{MAC: "AA:BB:CC:00:00:01", IP: "192.168.1.10", Name: "laptop"},
		{MAC: "AA:BB:CC:00:00:02", IP: "192.168.1.11", Name: "phone"},
	}
	checkNewDevices(ctx, bot, base)

	joined := append(base, Device{MAC: "AA:BB:CC:00:00:04", IP: "192.168.1.20", Name: "visitor"})
	checkNewDevices(ctx, bot, joined)

	texts := bot.sentTexts()
	if len(texts) != 1 {
		t.Fatalf("one new device produced %d messages, want 1", len(texts))
	}
	if !strings.Contains(texts[0], "AA:BB:CC:00:00:04") {
		t.Errorf("alert does not mention the new MAC: %q", texts[0])
	}

	if known := ctx.Devices.KnownSet(); !known["AA:BB:CC:00:00:04"] {
		t.Error("new device not persisted into the known-set")
	}

	// Known now; a further run with the same set stays quiet.
	checkNewDevices(ctx, bot, joined)
	if n := bot.sentCount(); n != 1 {
		t.Fatalf("repeat run sent %d total messages, want 1", n)
	}
}

func TestNewDeviceWatcherIgnoresEmptyObservation(t *testing.T) {
	ctx := newTestAppContext(t)
	bot := &fakeBot{}

	checkNewDevices(ctx, bot, []Device{{MAC: "AA:BB:CC:00:00:01"}})
	// An empty lease read must not clear or reseed the known-set.
	checkNewDevices(ctx, bot, nil)
	if known := ctx.Devices.KnownSet(); !known["AA:BB:CC:00:00:01"] {
		t.Error("empty observation disturbed the known-set")
	}
	if n := bot.sentCount(); n != 0 {
		t.Fatalf("sent %d messages, want 0", n)
	}
}

func TestCPUWatcherHysteresis(t *testing.T) {
	ctx := newTestAppContext(t)
	bot := &fakeBot{}
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	// Above threshold, but not yet for the full window.
	checkCPULoad(ctx, bot, 95, base)
	checkCPULoad(ctx, bot, 95, base.Add(4*time.Minute+59*time.Second))
	if n := bot.sentCount(); n != 0 {
		t.Fatalf("sent %d messages before the window elapsed, want 0", n)
	}

	// Window elapsed: exactly one alert, no repeats while still high.
	checkCPULoad(ctx, bot, 95, base.Add(5*time.Minute+1*time.Second))
	checkCPULoad(ctx, bot, 97, base.Add(6*time.Minute))
	texts := bot.sentTexts()
	if len(texts) != 1 {
		t.Fatalf("sustained high load produced %d messages, want 1", len(texts))
	}
	if !strings.Contains(texts[0], "Performance warning") {
		t.Errorf("alert text = %q", texts[0])
	}

	// Recovery: exactly one notice, then silence.
	checkCPULoad(ctx, bot, 20, base.Add(7*time.Minute))
	checkCPULoad(ctx, bot, 20, base.Add(8*time.Minute))
	texts = bot.sentTexts()
	if len(texts) != 2 {
		t.Fatalf("recovery produced %d total messages, want 2", len(texts))
	}
	if !strings.Contains(texts[1], "back to normal") {
		t.Errorf("recovery text = %q", texts[1])
	}
}

func TestCPUWatcherDropBeforeWindowSendsNothing(t *testing.T) {
	ctx := newTestAppContext(t)
	bot := &fakeBot{}
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	checkCPULoad(ctx, bot, 95, base)
	checkCPULoad(ctx, bot, 95, base.Add(3*time.Minute))
	checkCPULoad(ctx, bot, 30, base.Add(4*time.Minute))
	if n := bot.sentCount(); n != 0 {
		t.Fatalf("short spike sent %d messages, want 0", n)
	}

	// The window restarts from scratch after a drop.
	checkCPULoad(ctx, bot, 95, base.Add(5*time.Minute))
	checkCPULoad(ctx, bot, 95, base.Add(9*time.Minute))
	if n := bot.sentCount(); n != 0 {
		t.Fatalf("restarted window sent %d messages early, want 0", n)
	}
	checkCPULoad(ctx, bot, 95, base.Add(10*time.Minute+1*time.Second))
	if n := bot.sentCount(); n != 1 {
		t.Fatalf("restarted window sent %d messages, want 1", n)
	}
}
