package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ymorita/hisho/internal/domain"
	"github.com/ymorita/hisho/internal/storage"
)

// ErrCityNotFound is returned when deleting a city the user never added.
var ErrCityNotFound = errors.New("city not found")

// CityService manages a user's registered weather cities.
type CityService struct {
	storage *storage.Storage
}

func NewCityService(s *storage.Storage) *CityService {
	return &CityService{storage: s}
}

func (s *CityService) List(userID int64) ([]*domain.City, error) {
	return s.storage.ListCities(userID)
}

func (s *CityService) Add(userID int64, cityName string) (*domain.City, error) {
	cityName = strings.TrimSpace(cityName)
	if cityName == "" {
		return nil, fmt.Errorf("city name is empty")
	}
	return s.storage.AddCity(userID, cityName)
}

func (s *CityService) Remove(userID int64, cityName string) error {
	err := s.storage.DeleteCityByName(userID, cityName)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCityNotFound
	}
	return err
}
