package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ymorita/hisho/internal/clients/weather"
	"github.com/ymorita/hisho/internal/domain"
)

// WeatherService serves current conditions for a user's cities.
type WeatherService struct {
	client *weather.Client
	cities *CityService
	log    *logrus.Entry
}

func NewWeatherService(client *weather.Client, cities *CityService, log *logrus.Entry) *WeatherService {
	return &WeatherService{client: client, cities: cities, log: log}
}

// IsConfigured returns true if a weather API key is available.
func (s *WeatherService) IsConfigured() bool {
	return s.client != nil && s.client.IsConfigured()
}

// Current returns the conditions for one city.
func (s *WeatherService) Current(ctx context.Context, city string) (*domain.WeatherReport, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("weather API not configured")
	}
	return s.client.Current(ctx, city)
}

// ForUser returns one report per registered city. Cities that fail to
// resolve are skipped, matching the degrade-not-fail behavior of the rest
// of the app.
func (s *WeatherService) ForUser(ctx context.Context, userID int64) ([]*domain.WeatherReport, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("weather API not configured")
	}

	cities, err := s.cities.List(userID)
	if err != nil {
		return nil, err
	}

	var reports []*domain.WeatherReport
	for _, c := range cities {
		report, err := s.client.Current(ctx, c.CityName)
		if err != nil {
			s.log.WithError(err).WithField("city", c.CityName).Warn("weather fetch failed")
			continue
		}
		reports = append(reports, report)
	}

	return reports, nil
}
