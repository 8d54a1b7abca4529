package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ymorita/hisho/internal/clients/holidays"
	"github.com/ymorita/hisho/internal/storage"
)

// HolidayService is the session's holiday provider. It backs the Nager.Date
// client with the persistent per-year cache, so the holiday list survives
// restarts and is fetched at most once per year per region.
type HolidayService struct {
	storage *storage.Storage
	client  *holidays.Client
	region  string
	log     *logrus.Entry
}

func NewHolidayService(s *storage.Storage, client *holidays.Client, region string, log *logrus.Entry) *HolidayService {
	return &HolidayService{storage: s, client: client, region: region, log: log}
}

// Holidays implements agenda.HolidayProvider.
func (s *HolidayService) Holidays(ctx context.Context, year int) (map[string]bool, error) {
	cached, err := s.storage.GetHolidayYear(year, s.region)
	if err != nil {
		s.log.WithError(err).Warn("holiday cache read failed")
	}
	if len(cached) > 0 {
		set := make(map[string]bool, len(cached))
		for _, d := range cached {
			set[d] = true
		}
		return set, nil
	}

	set, err := s.client.Holidays(ctx, year)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	if err := s.storage.SaveHolidayYear(year, s.region, dates); err != nil {
		// Cache write failure is not fatal; next start refetches.
		s.log.WithError(err).Warn("holiday cache write failed")
	}

	return set, nil
}
