package main

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"wrtbot/internal/metrics"
)

// registerWatchers wires the background watchers into the job engine.
// Without a configured admin there is nobody to notify, so none run.
func registerWatchers(ctx *AppContext, bot BotAPI) {
	cfg := ctx.Config
	if cfg.AdminID == 0 {
		slog.Warn("no admin_id configured, background watchers disabled")
		return
	}

	ctx.Engine.Every("wan-watch", time.Duration(cfg.Intervals.WanSeconds)*time.Second, func() {
		checkWANStatus(ctx, bot, firstWANIP())
	})
	ctx.Engine.Every("device-watch", time.Duration(cfg.Intervals.DeviceSeconds)*time.Second, func() {
		checkNewDevices(ctx, bot, ctx.combinedDevices())
	})
	ctx.Engine.Every("cpu-watch", time.Duration(cfg.Intervals.CPUSeconds)*time.Second, func() {
		checkCPULoad(ctx, bot, metrics.LoadPercent(), time.Now())
	})
	if cfg.Report.Enabled {
		ctx.Engine.Daily("daily-report", cfg.Report.Hour, cfg.Report.Minute, func() {
			runDailyReport(ctx, bot, time.Now().In(ctx.Location))
		})
	}
}

// checkWANStatus compares the current first-WAN address against the
// retained one. The first observation seeds silently; afterwards a change
// emits exactly one notice, "connection lost" when the address is gone.
func checkWANStatus(ctx *AppContext, bot BotAPI, current string) {
	prev, seeded := ctx.Watch.WANObserve(current)
	if !seeded {
		slog.Info("wan watcher seeded", "ip", current)
		return
	}
	if prev == current {
		return
	}

	slog.Info("wan address changed", "old", prev, "new", current)
	var text string
	if current == wanNone {
		text = "🚨 *Warning:* WAN connection lost!"
	} else {
		text = fmt.Sprintf("ℹ️ *Info:* WAN address changed.\nOld: `%s`\nNew: `%s`", prev, current)
	}
	notifyAdmin(bot, ctx.Config.AdminID, text)
}

// checkNewDevices diffs the observed device set against the durable
// known-set. An empty known-set is seeded silently so the first run after
// install does not announce every already-present device as new.
func checkNewDevices(ctx *AppContext, bot BotAPI, devices []Device) {
	current := make(map[string]bool, len(devices))
	for _, dev := range devices {
		current[dev.MAC] = true
	}
	if len(current) == 0 {
		return
	}

	known := ctx.Devices.KnownSet()
	if len(known) == 0 {
		ctx.Devices.SaveKnownSet(current)
		slog.Info("known-device set seeded", "devices", len(current))
		return
	}

	var newMACs []string
	for mac := range current {
		if !known[mac] {
			newMACs = append(newMACs, mac)
		}
	}
	if len(newMACs) == 0 {
		return
	}
	sort.Strings(newMACs)

	byMAC := make(map[string]Device, len(devices))
	for _, dev := range devices {
		byMAC[dev.MAC] = dev
	}
	for _, mac := range newMACs {
		slog.Info("new device detected", "mac", mac)
		notifyAdmin(bot, ctx.Config.AdminID, renderNewDeviceAlert(byMAC[mac]))
	}

	for mac := range current {
		known[mac] = true
	}
	ctx.Devices.SaveKnownSet(known)
}

// checkCPULoad runs the load hysteresis: sustained load above the
// threshold for the configured duration fires exactly one alert, and the
// drop back under threshold fires exactly one recovery notice.
func checkCPULoad(ctx *AppContext, bot BotAPI, loadPct float64, now time.Time) {
	cfg := ctx.Config
	threshold := cfg.CPUAlert.LoadThreshold
	minDur := time.Duration(cfg.CPUAlert.DurationMinutes) * time.Minute

	alert, recovery := ctx.Watch.cpuTransition(loadPct, threshold, minDur, now)
	if alert {
		slog.Warn("sustained high cpu load", "load_pct", loadPct)
		notifyAdmin(bot, cfg.AdminID, fmt.Sprintf(
			"🚨 *Performance warning*: CPU load above %.0f%% for over %s. (Now: %.1f%%)",
			threshold, minDur, loadPct))
	}
	if recovery {
		slog.Info("cpu load recovered", "load_pct", loadPct)
		notifyAdmin(bot, cfg.AdminID, "✅ *Performance info*: CPU load is back to normal.")
	}
}

// cpuTransition is the hysteresis state machine, one locked
// read-modify-write per tick.
func (w *WatchState) cpuTransition(loadPct, threshold float64, minDur time.Duration, now time.Time) (alert, recovery bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if loadPct > threshold {
		if w.cpuHighSince.IsZero() {
			w.cpuHighSince = now
			return false, false
		}
		if now.Sub(w.cpuHighSince) >= minDur && !w.cpuAlertSent {
			w.cpuAlertSent = true
			return true, false
		}
		return false, false
	}

	wasSent := w.cpuAlertSent
	w.cpuHighSince = time.Time{}
	w.cpuAlertSent = false
	return false, wasSent
}

// runDailyReport aggregates uptime, traffic totals and the count of
// devices seen today that are not yet in the known-set.
func runDailyReport(ctx *AppContext, bot BotAPI, now time.Time) {
	info := systemInfo()

	raw := readFile(ctx.Config.Files.UsageDB)
	haveUsage := raw != ""
	var totalDown, totalUp uint64
	for _, u := range parseUsageDB(raw) {
		totalDown += u.Down
		totalUp += u.Up
	}

	known := ctx.Devices.KnownSet()
	newCount := 0
	for _, dev := range ctx.leasedDevices() {
		if !known[dev.MAC] {
			newCount++
		}
	}

	notifyAdmin(bot, ctx.Config.AdminID,
		renderDailyReport(now, info.Uptime, totalDown, totalUp, newCount, haveUsage))
}

// scheduleDailyReboot (re)registers the daily reboot job; the previous
// schedule, if any, is replaced.
func scheduleDailyReboot(ctx *AppContext, bot BotAPI, hour, minute int) {
	ctx.Engine.Daily("scheduled-reboot", hour, minute, func() {
		notifyAdmin(bot, ctx.Config.AdminID, "⏰ Scheduled reboot is running now...")
		rebootRouter()
	})
	slog.Info("daily reboot scheduled", "time", fmt.Sprintf("%02d:%02d", hour, minute))
}

// scheduleGuestWifiOff arms the one-shot that disables the guest radio.
func scheduleGuestWifiOff(ctx *AppContext, bot BotAPI, after time.Duration) {
	iface := ctx.Config.Network.GuestIface
	ctx.Engine.Once("guest-wifi-off", after, func() {
		setGuestWifi(iface, false)
		notifyAdmin(bot, ctx.Config.AdminID, "⏰ Guest WiFi has been disabled automatically.")
		slog.Info("guest wifi auto-off fired", "iface", iface)
	})
}
