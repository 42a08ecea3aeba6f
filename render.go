package main

import (
	"fmt"
	"strings"
	"time"

	"wrtbot/internal/format"
	"wrtbot/internal/metrics"
)

// renderLiveFrame renders one live dashboard frame as a monospace block.
func renderLiveFrame(s metrics.RateSample) string {
	var b strings.Builder
	b.WriteString("--- 🚀 LIVE DASHBOARD ---\n")
	fmt.Fprintf(&b, "CPU      : %s %5.1f%%\n", format.Bar(s.CPUPercent, 15), s.CPUPercent)
	fmt.Fprintf(&b, "RAM      : %s %5.1f%%\n", format.Bar(s.RAMPercent, 15), s.RAMPercent)
	fmt.Fprintf(&b, "DISK R/W : %s %10s", format.Bar(s.DiskPercent, 15), format.Rate(s.DiskRate))
	for _, iface := range s.Ifaces {
		fmt.Fprintf(&b, "\n\n--- 📶 Bandwidth (%s) ---\n", iface.Name)
		fmt.Fprintf(&b, "UP       : %s %10s\n", format.Bar(iface.UpPercent, 15), format.Rate(iface.Up))
		fmt.Fprintf(&b, "DOWN     : %s %10s", format.Bar(iface.DownPercent, 15), format.Rate(iface.Down))
	}
	return "```\n" + b.String() + "\n```"
}

// renderFullStatus renders the router overview for /status.
func renderFullStatus(info SystemInfo, wans []WANInfo, lan, dns string, leases int, radios []RadioStatus) string {
	var parts []string
	parts = append(parts, "*🛰 Router Monitor*\n")

	memPct := 0.0
	if info.MemTotal > 0 {
		memPct = float64(info.MemUsed) / float64(info.MemTotal) * 100
	}
	parts = append(parts, fmt.Sprintf("💻 *System*\n"+
		"  • `%s`: `%s`\n"+
		"  • `%s`: `%s`\n"+
		"  • `%s`: `%s`\n"+
		"  • `%s`: `%s`\n"+
		"  • `%s`: `%.2f`\n"+
		"  • `%s`: `%.1f%% (%s/%s)`",
		format.PadLabel("Model", 8), info.Model,
		format.PadLabel("OS", 8), info.OSVersion,
		format.PadLabel("Kernel", 8), info.Kernel,
		format.PadLabel("Uptime", 8), format.Uptime(info.Uptime),
		format.PadLabel("Load", 8), info.Load1,
		format.PadLabel("Memory", 8), memPct,
		format.Bytes(float64(info.MemUsed)), format.Bytes(float64(info.MemTotal))))

	disk := fmt.Sprintf("`%s %.1f%% (%s/%s)`",
		format.Bar(info.DiskPct, 10), info.DiskPct,
		format.Bytes(float64(info.DiskUsed)), format.Bytes(float64(info.DiskTotal)))
	swapPct := 0.0
	if info.SwapTotal > 0 {
		swapPct = float64(info.SwapUsed) / float64(info.SwapTotal) * 100
	}
	swap := fmt.Sprintf("`%s %.1f%% (%s/%s)`",
		format.Bar(swapPct, 10), swapPct,
		format.Bytes(float64(info.SwapUsed)), format.Bytes(float64(info.SwapTotal)))
	parts = append(parts, fmt.Sprintf("\n💾 *Storage*\n  • `RootFS `: %s\n  • `Swap   `: %s", disk, swap))

	var wanParts []string
	for _, wan := range wans {
		wanParts = append(wanParts, fmt.Sprintf(
			"  • *WAN `%s`*\n    `IP      :` `%s`\n    `Gateway :` `%s`\n    `Link    :` `%s`\n    `Traffic :` `↓%s / ↑%s`",
			wan.Name, wan.IP, wan.Gateway, wan.Speed,
			format.Bytes(float64(wan.Rx)), format.Bytes(float64(wan.Tx))))
	}
	wanStr := "  • `no active WAN interface detected`"
	if len(wanParts) > 0 {
		wanStr = strings.Join(wanParts, "\n")
	}
	parts = append(parts, fmt.Sprintf("\n🌐 *Network*\n%s\n  • `LAN IP  :` `%s`\n  • `DNS     :` `%s`\n  • `Leases  :` `%d`",
		wanStr, lan, dns, leases))

	var radioParts []string
	for _, r := range radios {
		state := "OFF 🔴"
		if r.Up {
			state = "ON 🟢"
		}
		radioParts = append(radioParts, fmt.Sprintf("  • `%s`: %s", r.Name, state))
	}
	radioStr := "  • `no wireless radios`"
	if len(radioParts) > 0 {
		radioStr = strings.Join(radioParts, "\n")
	}
	parts = append(parts, "\n📶 *Wireless*\n"+radioStr)

	return strings.Join(parts, "\n")
}

// renderDeviceList renders one page of the connected-device list.
func renderDeviceList(devices []Device, blocked map[string]bool, page, perPage int) string {
	if len(devices) == 0 {
		return "*No connected devices.*"
	}
	totalPages := (len(devices) + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(devices) {
		end = len(devices)
	}

	parts := []string{fmt.Sprintf("*Connected devices (%d total)*\n", len(devices))}
	for _, dev := range devices[start:end] {
		suffix := ""
		if blocked[dev.MAC] {
			suffix = " ⛔️"
		}
		parts = append(parts, fmt.Sprintf("  • *%s*%s\n    `IP  :` `%s`\n    `MAC :` `%s`\n    `Usage:` `↓%s / ↑%s`",
			format.EscapeMarkdown(dev.Name), suffix, dev.IP, dev.MAC,
			format.Bytes(float64(dev.Down)), format.Bytes(float64(dev.Up))))
	}
	parts = append(parts, fmt.Sprintf("\n`Page %d/%d`", page, totalPages))
	return strings.Join(parts, "\n")
}

// renderBlockedList renders the blocked-device overview.
func renderBlockedList(blocked []BlockedDevice) string {
	if len(blocked) == 0 {
		return "*No blocked devices.*"
	}
	parts := []string{"*Blocked devices*\n"}
	for _, dev := range blocked {
		parts = append(parts, fmt.Sprintf("  • *%s*\n    `MAC:` `%s`", format.EscapeMarkdown(dev.Name), dev.MAC))
	}
	return strings.Join(parts, "\n")
}

// renderNewDeviceAlert renders the one-per-device security notice.
func renderNewDeviceAlert(dev Device) string {
	return fmt.Sprintf("🕵️ *Security notice: new device detected*\n\n"+
		"  • *Name*: `%s`\n  • *IP*: `%s`\n  • *MAC*: `%s`",
		format.EscapeMarkdown(dev.Name), dev.IP, dev.MAC)
}

// renderDailyReport renders the once-a-day summary.
func renderDailyReport(now time.Time, uptime uint64, totalDown, totalUp uint64, newDevices int, haveUsage bool) string {
	traffic := "`no usage database`"
	if haveUsage {
		traffic = fmt.Sprintf("↓%s / ↑%s", format.Bytes(float64(totalDown)), format.Bytes(float64(totalUp)))
	}
	return fmt.Sprintf("☀️ *Daily router report — %s*\n"+
		"  • *Uptime*: %s\n"+
		"  • *Total traffic*: %s\n"+
		"  • *New devices seen*: %d",
		now.Format("02 Jan 2006"), format.Uptime(uptime), traffic, newDevices)
}

const helpText = `*Router Monitor Help*

*Public commands:*
` + "`/start` - status & main menu\n" +
	"`/help` - this message\n" +
	"`/ping [host]` - ping a host\n" +
	"`/find_device [name]` - search devices\n" +
	"`/check_setup` - check optional dependencies\n\n" +
	"*Admin commands:*\n" +
	"`/wol [MAC]` - Wake-on-LAN\n" +
	"`/set_alias [MAC] [name]` - set device alias\n" +
	"`/del_alias [MAC]` - remove alias\n" +
	"`/aliases` - list aliases\n" +
	"`/schedule_reboot [HH:MM]` - daily reboot\n" +
	"`/cancel_reboot` - cancel scheduled reboot\n" +
	"`/guest_wifi_on [hours]` - guest wifi with auto-off\n" +
	"`/guest_wifi_off` - guest wifi off"
