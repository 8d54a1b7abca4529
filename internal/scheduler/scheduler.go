package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ymorita/hisho/config"
	"github.com/ymorita/hisho/internal/agenda"
	"github.com/ymorita/hisho/internal/domain"
	"github.com/ymorita/hisho/internal/service"
)

// MessageSender delivers briefing text to the user.
type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

// Scheduler runs the periodic jobs: background agenda refresh and the
// morning briefing.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	session  *agenda.Session
	weather  *service.WeatherService
	clothing *service.ClothingService
	sender   MessageSender
	log      *logrus.Entry
}

func New(cfg *config.Config, session *agenda.Session, weather *service.WeatherService, clothing *service.ClothingService, log *logrus.Entry) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:     c,
		cfg:      cfg,
		session:  session,
		weather:  weather,
		clothing: clothing,
		log:      log,
	}
}

func (s *Scheduler) SetSender(sender MessageSender) {
	s.sender = sender
}

func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.RefreshCron, s.refreshAgenda); err != nil {
		return fmt.Errorf("add agenda refresh: %w", err)
	}

	morningSpec, err := cronSpecForTime(s.cfg.MorningTime)
	if err != nil {
		return fmt.Errorf("invalid MORNING_TIME: %w", err)
	}
	if _, err := s.cron.AddFunc(morningSpec, s.morningBriefing); err != nil {
		return fmt.Errorf("add morning briefing: %w", err)
	}

	s.cron.Start()
	s.log.WithFields(logrus.Fields{
		"tz":      s.cfg.Timezone.String(),
		"refresh": s.cfg.RefreshCron,
		"morning": s.cfg.MorningTime,
	}).Info("scheduler started")

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// cronSpecForTime turns "07:00" into a daily cron spec.
func cronSpecForTime(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("expected HH:MM, got %q", hhmm)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

func (s *Scheduler) refreshAgenda() {
	gen := s.session.Refresh(context.Background())
	s.log.WithField("generation", gen).Debug("background agenda refresh triggered")
}

func (s *Scheduler) morningBriefing() {
	if s.sender == nil || s.cfg.TelegramChatID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	text := s.BuildBriefing(ctx)
	if err := s.sender.SendMessage(s.cfg.TelegramChatID, text); err != nil {
		s.log.WithError(err).Error("send morning briefing failed")
	}
}

// BuildBriefing assembles the morning message: today's events, current
// weather and an outfit suggestion. Each section degrades independently.
func (s *Scheduler) BuildBriefing(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("☀️ <b>おはようございます！</b>\n\n")

	today := time.Now().In(s.cfg.Timezone)
	gen := s.session.LoadRange(context.Background(), domain.DayRange(today))
	snap, err := s.session.Wait(ctx, gen)
	switch {
	case err != nil || snap == nil:
		b.WriteString("今日の予定を取得できませんでした。\n")
	default:
		bucket := snap.Buckets[domain.DayKey(today)]
		if len(bucket.Events) == 0 {
			b.WriteString("今日の予定はありません。\n")
		} else {
			b.WriteString(fmt.Sprintf("<b>今日の予定 %d件:</b>\n", len(bucket.Events)))
			for _, e := range bucket.Events {
				b.WriteString(fmt.Sprintf("・%s %s\n", e.FormatTime(), e.Title))
			}
		}
		for _, fe := range snap.FetchErrors {
			s.log.WithField("source", fe.SourceID).Warn("briefing built with partial calendar data")
		}
	}

	if s.weather.IsConfigured() && s.cfg.BriefingCity != "" {
		report, err := s.weather.Current(ctx, s.cfg.BriefingCity)
		if err != nil {
			s.log.WithError(err).Warn("briefing weather fetch failed")
		} else {
			b.WriteString(fmt.Sprintf("\n🌤 %s: %.0f°C %s\n", report.City, report.Temperature, report.Condition))

			rainy := strings.Contains(report.Condition, "雨") ||
				strings.Contains(strings.ToLower(report.Condition), "rain")
			if suggestion, err := s.clothing.Suggest(report.Temperature, rainy); err == nil {
				b.WriteString("👕 " + suggestion.Message + "\n")
			}
		}
	}

	return b.String()
}
