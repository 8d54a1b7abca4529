package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ymorita/hisho/internal/service"
)

// UserResponse is the account payload returned by login and register. The
// password hash never leaves the server.
type UserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.auth.Login(req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		s.jsonError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		s.log.WithError(err).Error("login failed")
		s.jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.jsonResponse(w, UserResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.auth.Register(req.Email, req.Password, req.Name)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.jsonResponse(w, UserResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

func (s *Server) userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

func (s *Server) handleGetCities(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(r)
	if !ok {
		s.jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	cities, err := s.cities.List(userID)
	if err != nil {
		s.log.WithError(err).Error("list cities failed")
		s.jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.jsonResponse(w, cities)
}

func (s *Server) handleAddCity(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(r)
	if !ok {
		s.jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		CityName string `json:"city_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	city, err := s.cities.Add(userID, req.CityName)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.jsonResponse(w, city)
}

func (s *Server) handleDeleteCity(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(r)
	if !ok {
		s.jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	cityName := mux.Vars(r)["cityName"]

	err := s.cities.Remove(userID, cityName)
	if errors.Is(err, service.ErrCityNotFound) {
		s.jsonError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.log.WithError(err).Error("delete city failed")
		s.jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.jsonResponse(w, map[string]string{"deleted": cityName})
}

func (s *Server) handleClothingItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.clothing.Items()
	if err != nil {
		s.log.WithError(err).Error("list clothing items failed")
		s.jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.jsonResponse(w, items)
}

// handleClothingSuggestion proposes an outfit. Pass ?city= to use live
// weather, or ?temperature= (and optional ?rainy=) directly.
func (s *Server) handleClothingSuggestion(w http.ResponseWriter, r *http.Request) {
	var (
		temperature float64
		rainy       bool
	)

	if city := r.URL.Query().Get("city"); city != "" {
		if !s.weather.IsConfigured() {
			s.jsonError(w, http.StatusServiceUnavailable, "weather API not configured")
			return
		}
		report, err := s.weather.Current(r.Context(), city)
		if err != nil {
			s.jsonError(w, http.StatusBadGateway, err.Error())
			return
		}
		temperature = report.Temperature
		rainy = strings.Contains(report.Condition, "雨") ||
			strings.Contains(strings.ToLower(report.Condition), "rain")
	} else {
		t, err := strconv.ParseFloat(r.URL.Query().Get("temperature"), 64)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "temperature or city is required")
			return
		}
		temperature = t
		rainy, _ = strconv.ParseBool(r.URL.Query().Get("rainy"))
	}

	suggestion, err := s.clothing.Suggest(temperature, rainy)
	if err != nil {
		s.log.WithError(err).Error("clothing suggestion failed")
		s.jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.jsonResponse(w, suggestion)
}

func (s *Server) handleAddClothingChoices(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(r)
	if !ok {
		s.jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		ChoiceDate    string  `json:"choice_date"`
		Weather       string  `json:"weather"`
		Temperature   float64 `json:"temperature"`
		ClothingIDs   []int64 `json:"clothing_ids"`
		IsRecommended bool    `json:"is_recommended"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.clothing.RecordChoices(userID, req.ChoiceDate, req.Weather, req.Temperature, req.ClothingIDs, req.IsRecommended); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.jsonResponse(w, map[string]int{"saved": len(req.ClothingIDs)})
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		s.jsonError(w, http.StatusBadRequest, "city is required")
		return
	}
	if !s.weather.IsConfigured() {
		s.jsonError(w, http.StatusServiceUnavailable, "weather API not configured")
		return
	}

	report, err := s.weather.Current(r.Context(), city)
	if err != nil {
		s.jsonError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.jsonResponse(w, report)
}

func (s *Server) handleUserWeather(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(r)
	if !ok {
		s.jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if !s.weather.IsConfigured() {
		s.jsonError(w, http.StatusServiceUnavailable, "weather API not configured")
		return
	}

	reports, err := s.weather.ForUser(r.Context(), userID)
	if err != nil {
		s.log.WithError(err).Error("user weather failed")
		s.jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.jsonResponse(w, reports)
}
