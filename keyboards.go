package main

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Router status", "status_refresh")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Live dashboard", "live_start")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔒 Devices", "devices_page_1"),
			tgbotapi.NewInlineKeyboardButtonData("📡 WiFi", "wifi_show")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Reboot & restart", "reboot_menu")),
	)
}

func liveKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏹️ Stop live", "live_stop")),
	)
}

func deviceListKeyboard(devices []Device, blocked map[string]bool, page, perPage int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	totalPages := (len(devices) + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
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

	for _, dev := range devices[start:end] {
		if blocked[dev.MAC] {
			continue
		}
		label := dev.Name
		if len(label) > 22 {
			label = label[:20] + ".."
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⛔️ Block "+label, "block_"+dev.MAC)))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("devices_page_%d", page-1)))
	}
	if page < totalPages {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("devices_page_%d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⛔️ Blocked list", "blocked_list"),
		tgbotapi.NewInlineKeyboardButtonData("🔙 Menu", "main_menu")))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func blockedListKeyboard(blocked []BlockedDevice) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, dev := range blocked {
		label := dev.Name
		if len(label) > 22 {
			label = label[:20] + ".."
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Unblock "+label, "unblock_"+dev.MAC)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Devices", "devices_page_1")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func wifiKeyboard(radios []RadioStatus) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range radios {
		state := "OFF 🔴"
		if r.Up {
			state = "ON 🟢"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s: %s — toggle", r.Name, state), "wifi_toggle_"+r.Name)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Menu", "main_menu")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func rebootMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚠️ REBOOT ROUTER ⚠️", "reboot_confirm")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌐 Restart network", "restart_network"),
			tgbotapi.NewInlineKeyboardButtonData("🔥 Restart firewall", "restart_firewall")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Menu", "main_menu")),
	)
}

func rebootConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, reboot now", "reboot_execute")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "reboot_menu")),
	)
}
