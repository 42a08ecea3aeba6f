package main

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wrtbot/internal/cmdexec"
	"wrtbot/internal/format"
)

var (
	macPattern  = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)
	timePattern = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
)

func isAdmin(ctx *AppContext, userID int64) bool {
	// An unset admin id leaves the bot open; the watchers are off in
	// that case but commands still work for local testing.
	return ctx.Config.AdminID == 0 || userID == ctx.Config.AdminID
}

func replyMarkdown(bot BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	safeSend(bot, msg)
}

func handleCommand(ctx *AppContext, bot BotAPI, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "status":
		sendFullStatus(ctx, bot, chatID, 0)
	case "help":
		replyMarkdown(bot, chatID, helpText)
	case "ping":
		cmdPing(bot, chatID, args)
	case "find_device":
		cmdFindDevice(ctx, bot, chatID, args)
	case "check_setup":
		cmdCheckSetup(bot, chatID)
	default:
		if !adminCommands[msg.Command()] {
			replyMarkdown(bot, chatID, "Unknown command. See /help.")
			return
		}
		if !isAdmin(ctx, msg.From.ID) {
			replyMarkdown(bot, chatID, "🔒 Access denied: admin only.")
			return
		}
		handleAdminCommand(ctx, bot, msg, args)
	}
}

var adminCommands = map[string]bool{
	"wol":             true,
	"set_alias":       true,
	"del_alias":       true,
	"aliases":         true,
	"schedule_reboot": true,
	"cancel_reboot":   true,
	"guest_wifi_on":   true,
	"guest_wifi_off":  true,
}

func handleAdminCommand(ctx *AppContext, bot BotAPI, msg *tgbotapi.Message, args []string) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "wol":
		cmdWake(bot, chatID, args)
	case "set_alias":
		cmdSetAlias(ctx, bot, chatID, args)
	case "del_alias":
		cmdDelAlias(ctx, bot, chatID, args)
	case "aliases":
		cmdListAliases(ctx, bot, chatID)
	case "schedule_reboot":
		cmdScheduleReboot(ctx, bot, chatID, args)
	case "cancel_reboot":
		cmdCancelReboot(ctx, bot, chatID)
	case "guest_wifi_on":
		cmdGuestWifiOn(ctx, bot, chatID, args)
	case "guest_wifi_off":
		cmdGuestWifiOff(ctx, bot, chatID)
	}
}

// sendFullStatus renders the router overview. With messageID 0 a new
// message is sent; otherwise the existing one is edited in place.
func sendFullStatus(ctx *AppContext, bot BotAPI, chatID int64, messageID int) {
	info := systemInfo()
	wans := wanInterfaces()
	dns := dnsServers()
	text := renderFullStatus(info, wans, lanIP(ctx.Config.Network.LANBridge), dns,
		len(ctx.leasedDevices()), wifiRadios())

	if messageID == 0 {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = mainMenuKeyboard()
		safeSend(bot, msg)
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, mainMenuKeyboard())
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(edit); classifyDelivery(err) == deliveryFailed {
		slog.Error("status refresh failed", "chat", chatID, "err", err)
	}
}

func cmdPing(bot BotAPI, chatID int64, args []string) {
	if len(args) == 0 {
		replyMarkdown(bot, chatID, "Usage: `/ping [hostname/ip]`")
		return
	}
	host := args[0]
	c, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	out := cmdexec.Text(c, "ping", "-c", "4", host)
	if out == "" {
		out = "ping failed"
	}
	replyMarkdown(bot, chatID, fmt.Sprintf("Ping result for *%s*:\n```\n%s\n```", host, out))
}

func cmdFindDevice(ctx *AppContext, bot BotAPI, chatID int64, args []string) {
	if len(args) == 0 {
		replyMarkdown(bot, chatID, "Usage: `/find_device [name]`")
		return
	}
	query := strings.ToLower(strings.Join(args, " "))
	var lines []string
	for _, dev := range ctx.combinedDevices() {
		if !strings.Contains(strings.ToLower(dev.Name), query) {
			continue
		}
		lines = append(lines, fmt.Sprintf("• *%s*\n  `%s` | `%s` | `↓%s / ↑%s`",
			format.EscapeMarkdown(dev.Name), dev.IP, dev.MAC,
			format.Bytes(float64(dev.Down)), format.Bytes(float64(dev.Up))))
	}
	if len(lines) == 0 {
		replyMarkdown(bot, chatID, fmt.Sprintf("No device matches '%s'.", query))
		return
	}
	replyMarkdown(bot, chatID, fmt.Sprintf("*Search results for '%s':*\n\n%s", query, strings.Join(lines, "\n")))
}

func cmdCheckSetup(bot BotAPI, chatID int64) {
	deps := []struct {
		label string
		cmd   string
	}{
		{"Bandwidth monitor", "wrtbwmon"},
		{"Wake-on-LAN", "etherwake"},
		{"Link speed probe", "ethtool"},
	}
	lines := []string{"*🔎 Dependency check*\n"}
	for _, dep := range deps {
		mark := "❌"
		if cmdexec.Exists(dep.cmd) {
			mark = "✅"
		}
		lines = append(lines, fmt.Sprintf("  %s *%s* (`%s`)", mark, dep.label, dep.cmd))
	}
	lines = append(lines, "\nFeatures with missing dependencies will not work.")
	replyMarkdown(bot, chatID, strings.Join(lines, "\n"))
}

func cmdWake(bot BotAPI, chatID int64, args []string) {
	if len(args) == 0 || !macPattern.MatchString(args[0]) {
		replyMarkdown(bot, chatID, "Usage: `/wol [MAC address]`")
		return
	}
	if !cmdexec.Exists("etherwake") {
		replyMarkdown(bot, chatID, "❌ `etherwake` not found.")
		return
	}
	c, cancel := routerCtx()
	defer cancel()
	_ = cmdexec.Run(c, "etherwake", "-i", "br-lan", args[0])
	replyMarkdown(bot, chatID, fmt.Sprintf("✅ Magic packet sent to `%s`.", args[0]))
}

func cmdSetAlias(ctx *AppContext, bot BotAPI, chatID int64, args []string) {
	if len(args) < 2 || !macPattern.MatchString(args[0]) {
		replyMarkdown(bot, chatID, "Usage: `/set_alias [MAC address] [name]`")
		return
	}
	mac := strings.ToUpper(args[0])
	alias := strings.Join(args[1:], " ")
	ctx.Devices.SetAlias(mac, alias)
	replyMarkdown(bot, chatID, fmt.Sprintf("✅ Alias for `%s` set to *%s*.", mac, format.EscapeMarkdown(alias)))
}

func cmdDelAlias(ctx *AppContext, bot BotAPI, chatID int64, args []string) {
	if len(args) == 0 {
		replyMarkdown(bot, chatID, "Usage: `/del_alias [MAC address]`")
		return
	}
	mac := strings.ToUpper(args[0])
	if ctx.Devices.DeleteAlias(mac) {
		replyMarkdown(bot, chatID, fmt.Sprintf("✅ Alias for `%s` removed.", mac))
	} else {
		replyMarkdown(bot, chatID, fmt.Sprintf("❌ No alias found for `%s`.", mac))
	}
}

func cmdListAliases(ctx *AppContext, bot BotAPI, chatID int64) {
	aliases := ctx.Devices.Aliases()
	if len(aliases) == 0 {
		replyMarkdown(bot, chatID, "No aliases configured.")
		return
	}
	lines := []string{"*Device aliases:*\n"}
	for mac, alias := range aliases {
		lines = append(lines, fmt.Sprintf("`%s`: *%s*", mac, format.EscapeMarkdown(alias)))
	}
	replyMarkdown(bot, chatID, strings.Join(lines, "\n"))
}

func cmdScheduleReboot(ctx *AppContext, bot BotAPI, chatID int64, args []string) {
	if len(args) == 0 {
		replyMarkdown(bot, chatID, "Usage: `/schedule_reboot HH:MM` (24h)")
		return
	}
	m := timePattern.FindStringSubmatch(args[0])
	if m == nil {
		replyMarkdown(bot, chatID, "Usage: `/schedule_reboot HH:MM` (24h)")
		return
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		replyMarkdown(bot, chatID, "Invalid time of day.")
		return
	}
	scheduleDailyReboot(ctx, bot, hour, minute)
	replyMarkdown(bot, chatID, fmt.Sprintf("✅ Reboot scheduled daily at *%02d:%02d*.", hour, minute))
}

func cmdCancelReboot(ctx *AppContext, bot BotAPI, chatID int64) {
	if ctx.Engine.Cancel("scheduled-reboot") {
		replyMarkdown(bot, chatID, "✅ Scheduled reboot cancelled.")
	} else {
		replyMarkdown(bot, chatID, "No reboot is scheduled.")
	}
}

func cmdGuestWifiOn(ctx *AppContext, bot BotAPI, chatID int64, args []string) {
	iface := ctx.Config.Network.GuestIface
	if iface == "" {
		replyMarkdown(bot, chatID, "❌ `guest_wifi_iface` is not configured.")
		return
	}
	hours := 1
	if len(args) > 0 {
		if h, err := strconv.Atoi(args[0]); err == nil && h > 0 {
			hours = h
		}
	}
	setGuestWifi(iface, true)
	scheduleGuestWifiOff(ctx, bot, time.Duration(hours)*time.Hour)
	replyMarkdown(bot, chatID, fmt.Sprintf("✅ Guest WiFi enabled, auto-off in *%d h*.", hours))
}

func cmdGuestWifiOff(ctx *AppContext, bot BotAPI, chatID int64) {
	iface := ctx.Config.Network.GuestIface
	if iface == "" {
		replyMarkdown(bot, chatID, "❌ `guest_wifi_iface` is not configured.")
		return
	}
	ctx.Engine.Cancel("guest-wifi-off")
	setGuestWifi(iface, false)
	replyMarkdown(bot, chatID, "✅ Guest WiFi disabled.")
}

// dnsServers lists the upstream resolvers from the resolv.conf snapshot.
func dnsServers() string {
	raw := readFile("/tmp/resolv.conf.d/resolv.conf.auto")
	if raw == "" {
		raw = readFile("/etc/resolv.conf")
	}
	var servers []string
	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "nameserver" {
			servers = append(servers, fields[1])
		}
	}
	if len(servers) == 0 {
		return "N/A"
	}
	return strings.Join(servers, ", ")
}
