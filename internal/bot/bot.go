package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/ymorita/hisho/config"
	"github.com/ymorita/hisho/internal/agenda"
	"github.com/ymorita/hisho/internal/scheduler"
)

// Bot is the Telegram companion: it delivers the morning briefing and
// answers /today and /refresh on demand.
type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     *config.Config
	sched   *scheduler.Scheduler
	session *agenda.Session
	log     *logrus.Entry
}

func New(cfg *config.Config, sched *scheduler.Scheduler, session *agenda.Session, log *logrus.Entry) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.WithField("username", api.Self.UserName).Info("telegram bot authorized")

	b := &Bot{
		api:     api,
		cfg:     cfg,
		sched:   sched,
		session: session,
		log:     log,
	}
	b.setCommands()

	return b, nil
}

func (b *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "today", Description: "📅 今日の予定"},
		{Command: "refresh", Description: "🔄 カレンダーを更新"},
		{Command: "help", Description: "❓ ヘルプ"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		b.log.WithError(err).Warn("set bot commands failed")
	}
}

// Start long-polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

// SendMessage implements scheduler.MessageSender.
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if chatID != b.cfg.TelegramChatID {
		b.log.WithField("chat_id", chatID).Warn("ignoring message from unknown chat")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch update.Message.Command() {
	case "today":
		b.reply(chatID, b.sched.BuildBriefing(ctx))
	case "refresh":
		gen := b.session.Refresh(context.Background())
		if _, err := b.session.Wait(ctx, gen); err != nil {
			b.reply(chatID, "カレンダーの更新に失敗しました: "+err.Error())
			return
		}
		b.reply(chatID, "カレンダーを更新しました ✅")
	case "help", "start":
		b.reply(chatID, "/today — 今日の予定\n/refresh — カレンダーを更新")
	default:
		b.reply(chatID, "コマンドは /help で確認できます")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		b.log.WithError(err).Error("send message failed")
	}
}
