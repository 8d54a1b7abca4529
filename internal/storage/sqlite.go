package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ymorita/hisho/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.seedClothingItems(); err != nil {
		return nil, fmt.Errorf("seed clothing items: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS cities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			city_name TEXT NOT NULL,
			display_order INTEGER DEFAULT 0,
			is_favorite INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, city_name),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cities_user_id ON cities(user_id)`,
		`CREATE TABLE IF NOT EXISTS clothing_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			category TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS clothing_choices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			clothing_id INTEGER NOT NULL,
			choice_date TEXT NOT NULL,
			weather TEXT DEFAULT '',
			temperature REAL DEFAULT 0,
			is_recommended INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (clothing_id) REFERENCES clothing_items(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clothing_choices_user ON clothing_choices(user_id, choice_date)`,
		`CREATE TABLE IF NOT EXISTS holiday_cache (
			year INTEGER NOT NULL,
			region TEXT NOT NULL,
			date TEXT NOT NULL,
			PRIMARY KEY (year, region, date)
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// Re-runnable migrations: additive statements may already be
			// applied.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("exec migration: %w", err)
		}
	}

	return nil
}

// seedClothingItems fills the catalog on first run.
func (s *Storage) seedClothingItems() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM clothing_items`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []domain.ClothingItem{
		{Name: "半袖Tシャツ", Category: "tops"},
		{Name: "長袖シャツ", Category: "tops"},
		{Name: "ニット", Category: "tops"},
		{Name: "パーカー", Category: "outer"},
		{Name: "カーディガン", Category: "outer"},
		{Name: "ジャケット", Category: "outer"},
		{Name: "コート", Category: "outer"},
		{Name: "ダウンジャケット", Category: "outer"},
		{Name: "ショートパンツ", Category: "bottoms"},
		{Name: "ロングパンツ", Category: "bottoms"},
		{Name: "マフラー", Category: "accessory"},
		{Name: "折りたたみ傘", Category: "accessory"},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range seed {
		if _, err := tx.Exec(`INSERT INTO clothing_items (name, category) VALUES (?, ?)`, item.Name, item.Category); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// --- Users ---

func (s *Storage) CreateUser(email, passwordHash, name string) (*domain.User, error) {
	res, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)`,
		email, passwordHash, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(id)
}

func (s *Storage) GetUserByID(id int64) (*domain.User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, email, password_hash, name, created_at FROM users WHERE id = ?`, id,
	))
}

func (s *Storage) GetUserByEmail(email string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, email, password_hash, name, created_at FROM users WHERE email = ?`, email,
	))
}

func (s *Storage) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// --- Cities ---

func (s *Storage) ListCities(userID int64) ([]*domain.City, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, city_name, display_order, is_favorite
		 FROM cities WHERE user_id = ? ORDER BY display_order, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var cities []*domain.City
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.UserID, &c.CityName, &c.DisplayOrder, &c.IsFavorite); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, &c)
	}

	return cities, rows.Err()
}

func (s *Storage) AddCity(userID int64, cityName string) (*domain.City, error) {
	var next int
	if err := s.db.QueryRow(
		`SELECT COALESCE(MAX(display_order), 0) + 1 FROM cities WHERE user_id = ?`, userID,
	).Scan(&next); err != nil {
		return nil, fmt.Errorf("next display order: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO cities (user_id, city_name, display_order) VALUES (?, ?, ?)`,
		userID, cityName, next,
	)
	if err != nil {
		return nil, fmt.Errorf("insert city: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &domain.City{ID: id, UserID: userID, CityName: cityName, DisplayOrder: next}, nil
}

func (s *Storage) DeleteCityByName(userID int64, cityName string) error {
	res, err := s.db.Exec(
		`DELETE FROM cities WHERE user_id = ? AND city_name = ?`, userID, cityName,
	)
	if err != nil {
		return fmt.Errorf("delete city: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- Clothing ---

func (s *Storage) ListClothingItems() ([]*domain.ClothingItem, error) {
	rows, err := s.db.Query(`SELECT id, name, category FROM clothing_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query clothing items: %w", err)
	}
	defer rows.Close()

	var items []*domain.ClothingItem
	for rows.Next() {
		var it domain.ClothingItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Category); err != nil {
			return nil, fmt.Errorf("scan clothing item: %w", err)
		}
		items = append(items, &it)
	}

	return items, rows.Err()
}

// SaveClothingChoices records one day's worn items in a single transaction.
func (s *Storage) SaveClothingChoices(choices []*domain.ClothingChoice) error {
	if len(choices) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range choices {
		_, err := tx.Exec(
			`INSERT INTO clothing_choices
			 (user_id, clothing_id, choice_date, weather, temperature, is_recommended)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.UserID, c.ClothingID, c.ChoiceDate, c.Weather, c.Temperature, c.IsRecommended,
		)
		if err != nil {
			return fmt.Errorf("insert clothing choice: %w", err)
		}
	}

	return tx.Commit()
}

// --- Holiday cache ---

// GetHolidayYear returns the cached holiday dates of one year, or nil when
// the year has never been cached.
func (s *Storage) GetHolidayYear(year int, region string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT date FROM holiday_cache WHERE year = ? AND region = ? ORDER BY date`,
		year, region,
	)
	if err != nil {
		return nil, fmt.Errorf("query holiday cache: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		dates = append(dates, d)
	}

	return dates, rows.Err()
}

// SaveHolidayYear replaces the cached holiday set of one year.
func (s *Storage) SaveHolidayYear(year int, region string, dates []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM holiday_cache WHERE year = ? AND region = ?`, year, region); err != nil {
		return fmt.Errorf("clear holiday cache: %w", err)
	}
	for _, d := range dates {
		if _, err := tx.Exec(
			`INSERT INTO holiday_cache (year, region, date) VALUES (?, ?, ?)`,
			year, region, d,
		); err != nil {
			return fmt.Errorf("insert holiday: %w", err)
		}
	}

	return tx.Commit()
}
