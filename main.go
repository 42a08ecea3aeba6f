package main

import (
	"log/slog"
	"os"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	closeLogger := setupLogger()
	defer closeLogger()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic", "r", r, "stack", string(debug.Stack()))
		}
	}()

	configPath := os.Getenv("WRTBOT_CONFIG")
	if configPath == "" {
		configPath = "config.json"
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		slog.Error("config unreadable", "path", configPath, "err", err)
		os.Exit(1)
	}
	if cfg.BotToken == "" {
		slog.Error("no bot token: set bot_token in config.json or WRTBOT_TOKEN")
		os.Exit(1)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		slog.Error("bot startup failed", "err", err)
		os.Exit(1)
	}
	slog.Info("wrtbot started", "username", bot.Self.UserName)

	ctx := newAppContext(cfg)
	registerWatchers(ctx, bot)
	ctx.Engine.Start()
	defer ctx.Engine.Stop()

	registerBotCommands(bot)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	for update := range bot.GetUpdatesChan(u) {
		if update.CallbackQuery != nil {
			go handleCallback(ctx, bot, update.CallbackQuery)
			continue
		}
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		go handleCommand(ctx, bot, update.Message)
	}
}

// registerBotCommands publishes the command list shown by the Telegram UI.
func registerBotCommands(bot BotAPI) {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "🚀 Status & main menu"},
		tgbotapi.BotCommand{Command: "help", Description: "ℹ️ Show help"},
		tgbotapi.BotCommand{Command: "ping", Description: "🏓 Ping a host"},
		tgbotapi.BotCommand{Command: "find_device", Description: "Search devices"},
		tgbotapi.BotCommand{Command: "check_setup", Description: "🔎 Check dependencies"},
		tgbotapi.BotCommand{Command: "wol", Description: "☕ Wake-on-LAN (admin)"},
		tgbotapi.BotCommand{Command: "set_alias", Description: "Set device alias (admin)"},
		tgbotapi.BotCommand{Command: "aliases", Description: "List aliases (admin)"},
		tgbotapi.BotCommand{Command: "schedule_reboot", Description: "Schedule daily reboot (admin)"},
	)
	if _, err := bot.Request(cmds); err != nil {
		slog.Error("registering bot commands failed", "err", err)
	}
}
