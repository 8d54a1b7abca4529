package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/ymorita/hisho/config"
	"github.com/ymorita/hisho/internal/agenda"
	"github.com/ymorita/hisho/internal/service"
)

// APIResponse is the envelope of every JSON endpoint.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Server is the REST API consumed by the mobile app.
type Server struct {
	cfg      *config.Config
	log      *logrus.Entry
	auth     *service.AuthService
	cities   *service.CityService
	clothing *service.ClothingService
	weather  *service.WeatherService
	session  *agenda.Session

	server *http.Server
}

func New(cfg *config.Config, log *logrus.Entry, auth *service.AuthService, cities *service.CityService, clothing *service.ClothingService, weather *service.WeatherService, session *agenda.Session) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		auth:     auth,
		cities:   cities,
		clothing: clothing,
		weather:  weather,
		session:  session,
	}
}

// Router builds the full route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	r.HandleFunc("/api/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/api/register", s.handleRegister).Methods("POST")

	r.HandleFunc("/api/users/{id}/cities", s.handleGetCities).Methods("GET")
	r.HandleFunc("/api/users/{id}/cities", s.handleAddCity).Methods("POST")
	r.HandleFunc("/api/users/{id}/cities/name/{cityName}", s.handleDeleteCity).Methods("DELETE")

	r.HandleFunc("/api/clothing_items", s.handleClothingItems).Methods("GET")
	r.HandleFunc("/api/clothing_suggestion", s.handleClothingSuggestion).Methods("GET")
	r.HandleFunc("/api/users/{id}/clothing_choices", s.handleAddClothingChoices).Methods("POST")

	r.HandleFunc("/api/weather", s.handleWeather).Methods("GET")
	r.HandleFunc("/api/users/{id}/weather", s.handleUserWeather).Methods("GET")

	r.HandleFunc("/api/agenda", s.handleAgendaMonth).Methods("GET")
	r.HandleFunc("/api/agenda/today", s.handleAgendaToday).Methods("GET")
	r.HandleFunc("/api/agenda/refresh", s.handleAgendaRefresh).Methods("POST")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	return corsHandler.Handler(s.withRequestLog(r))
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.log.WithField("addr", s.cfg.ListenAddr).Info("api server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// withRequestLog tags every request with an id and logs its completion.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"duration":   time.Since(start).String(),
		}).Info("request handled")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data})
}

func (s *Server) jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: false, Error: msg})
}
