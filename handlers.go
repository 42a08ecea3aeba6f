package main

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const devicesPerPage = 5

func answerCallback(bot BotAPI, id string) {
	if _, err := bot.Request(tgbotapi.NewCallback(id, "")); err != nil {
		// Stale queries expire server-side; nothing to do.
		_ = err
	}
}

func handleCallback(ctx *AppContext, bot BotAPI, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	data := query.Data
	answerCallback(bot, query.ID)

	// Public callbacks.
	switch {
	case data == "main_menu", data == "status_refresh":
		sendFullStatus(ctx, bot, chatID, messageID)
		return
	case data == "live_start":
		startLiveSession(ctx, bot, chatID, messageID, nil)
		return
	case data == "live_stop":
		stopLiveSession(ctx, chatID)
		sendFullStatus(ctx, bot, chatID, messageID)
		return
	}

	if !isAdmin(ctx, query.From.ID) {
		alert := tgbotapi.NewCallbackWithAlert(query.ID, "🔒 Access denied: admin only.")
		_, _ = bot.Request(alert)
		return
	}

	switch {
	case strings.HasPrefix(data, "devices_page_"):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, "devices_page_"))
		showDevicePage(ctx, bot, chatID, messageID, page)

	case strings.HasPrefix(data, "block_"):
		mac := strings.TrimPrefix(data, "block_")
		name := mac
		if alias, ok := ctx.Devices.Alias(mac); ok {
			name = alias
		} else {
			for _, dev := range ctx.leasedDevices() {
				if dev.MAC == mac {
					name = dev.Name
					break
				}
			}
		}
		blockDevice(mac, name)
		showDevicePage(ctx, bot, chatID, messageID, 1)

	case strings.HasPrefix(data, "unblock_"):
		unblockDevice(strings.TrimPrefix(data, "unblock_"))
		showBlockedList(ctx, bot, chatID, messageID)

	case data == "blocked_list":
		showBlockedList(ctx, bot, chatID, messageID)

	case data == "wifi_show":
		editMarkdown(bot, chatID, messageID, "*📡 WiFi control*", wifiKeyboard(wifiRadios()))

	case strings.HasPrefix(data, "wifi_toggle_"):
		radio := strings.TrimPrefix(data, "wifi_toggle_")
		for _, r := range wifiRadios() {
			if r.Name == radio {
				toggleRadio(radio, !r.Up)
				break
			}
		}
		editMarkdown(bot, chatID, messageID, "*📡 WiFi control*", wifiKeyboard(wifiRadios()))

	case data == "reboot_menu":
		editMarkdown(bot, chatID, messageID, "*🔄 Reboot & restart*", rebootMenuKeyboard())

	case data == "reboot_confirm":
		editMarkdown(bot, chatID, messageID,
			"⚠️ *ARE YOU SURE?*\n\nThis reboots the whole router.", rebootConfirmKeyboard())

	case data == "reboot_execute":
		editMarkdown(bot, chatID, messageID,
			"✅ REBOOT issued. The router will be offline briefly.", mainMenuKeyboard())
		rebootRouter()

	case data == "restart_network":
		restartService("network")
		editMarkdown(bot, chatID, messageID, "✅ Network restarted.", rebootMenuKeyboard())

	case data == "restart_firewall":
		restartService("firewall")
		editMarkdown(bot, chatID, messageID, "✅ Firewall restarted.", rebootMenuKeyboard())
	}
}

func editMarkdown(bot BotAPI, chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
	edit.ParseMode = tgbotapi.ModeMarkdown
	_, _ = bot.Send(edit)
}

func showDevicePage(ctx *AppContext, bot BotAPI, chatID int64, messageID, page int) {
	devices := ctx.combinedDevices()
	blocked := make(map[string]bool)
	for _, dev := range blockedDevices() {
		blocked[dev.MAC] = true
	}
	editMarkdown(bot, chatID, messageID,
		renderDeviceList(devices, blocked, page, devicesPerPage),
		deviceListKeyboard(devices, blocked, page, devicesPerPage))
}

func showBlockedList(ctx *AppContext, bot BotAPI, chatID int64, messageID int) {
	blocked := blockedDevices()
	editMarkdown(bot, chatID, messageID, renderBlockedList(blocked), blockedListKeyboard(blocked))
}
