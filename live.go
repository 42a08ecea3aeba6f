package main

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wrtbot/internal/metrics"
)

func liveJobName(chatID int64) string {
	return fmt.Sprintf("live_%d", chatID)
}

// monitorIfaces resolves the interfaces a live session tracks: the
// configured override, or the default-route interfaces plus the LAN bridge.
func monitorIfaces(ctx *AppContext) []string {
	if len(ctx.Config.Network.MonitorIfaces) > 0 {
		return ctx.Config.Network.MonitorIfaces
	}
	ifaces := defaultRouteIfaces()
	bridge := ctx.Config.Network.LANBridge
	for _, name := range ifaces {
		if name == bridge {
			return ifaces
		}
	}
	return append(ifaces, bridge)
}

// startLiveSession begins refreshing the given message with a live
// dashboard. A second start for a chat that already has one is a no-op.
func startLiveSession(ctx *AppContext, bot BotAPI, chatID int64, messageID int, ifaces []string) {
	if len(ifaces) == 0 {
		ifaces = monitorIfaces(ctx)
	}

	sess := &LiveSession{
		ChatID:    chatID,
		MessageID: messageID,
		Ifaces:    ifaces,
		Prev:      ctx.Snapshot(ifaces),
	}
	if _, inserted := ctx.Live.PutIfAbsent(sess); !inserted {
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
		"🚀 Starting live dashboard...", liveKeyboard())
	safeSend(bot, edit)

	ctx.Engine.Every(liveJobName(chatID), ctx.Config.LiveInterval(), func() {
		tickLiveSession(ctx, bot, chatID)
	})
	slog.Info("live session started", "chat", chatID, "ifaces", ifaces)
}

// tickLiveSession advances one live session by one frame. Retained state
// is re-validated after every I/O step because a concurrent stop may have
// cleared it while this tick was reading counters or talking to Telegram.
func tickLiveSession(ctx *AppContext, bot BotAPI, chatID int64) {
	sess, ok := ctx.Live.View(chatID)
	if !ok {
		// Stopped concurrently; unregister the orphaned job.
		ctx.Engine.Cancel(liveJobName(chatID))
		return
	}

	curr := ctx.Snapshot(sess.Ifaces)
	sample, next := metrics.Sample(&sess.Prev, curr, ctx.Capacities())
	if !ctx.Live.UpdateSnapshot(chatID, next) {
		ctx.Engine.Cancel(liveJobName(chatID))
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, sess.MessageID,
		renderLiveFrame(sample), liveKeyboard())
	edit.ParseMode = tgbotapi.ModeMarkdown

	_, err := bot.Send(edit)
	switch classifyDelivery(err) {
	case deliveryOK, deliveryUnchanged:
	case deliveryGone:
		slog.Warn("live dashboard message gone, stopping session", "chat", chatID)
		stopLiveSession(ctx, chatID)
	default:
		slog.Error("live frame delivery failed, stopping session", "chat", chatID, "err", err)
		stopLiveSession(ctx, chatID)
		safeSend(bot, tgbotapi.NewMessage(chatID, "Live dashboard stopped after a delivery error."))
	}
}

// stopLiveSession cancels the tick job and drops the retained state.
// Idempotent: stopping a chat without a session is a no-op.
func stopLiveSession(ctx *AppContext, chatID int64) bool {
	ctx.Engine.Cancel(liveJobName(chatID))
	dropped := ctx.Live.Drop(chatID)
	if dropped {
		slog.Info("live session stopped", "chat", chatID)
	}
	return dropped
}
