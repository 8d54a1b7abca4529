package service

import (
	"fmt"

	"github.com/ymorita/hisho/internal/domain"
	"github.com/ymorita/hisho/internal/storage"
)

// ClothingService serves the clothing catalog, records user choices and
// produces a temperature-based outfit suggestion.
type ClothingService struct {
	storage *storage.Storage
}

func NewClothingService(s *storage.Storage) *ClothingService {
	return &ClothingService{storage: s}
}

func (s *ClothingService) Items() ([]*domain.ClothingItem, error) {
	return s.storage.ListClothingItems()
}

// RecordChoices saves what a user wore (or accepted) on one day.
func (s *ClothingService) RecordChoices(userID int64, choiceDate, weatherDesc string, temperature float64, clothingIDs []int64, recommended bool) error {
	if choiceDate == "" {
		return fmt.Errorf("choice date is empty")
	}
	if len(clothingIDs) == 0 {
		return fmt.Errorf("no clothing items selected")
	}

	choices := make([]*domain.ClothingChoice, 0, len(clothingIDs))
	for _, id := range clothingIDs {
		choices = append(choices, &domain.ClothingChoice{
			UserID:        userID,
			ClothingID:    id,
			ChoiceDate:    choiceDate,
			Weather:       weatherDesc,
			Temperature:   temperature,
			IsRecommended: recommended,
		})
	}

	return s.storage.SaveClothingChoices(choices)
}

// Suggestion is a rule-based outfit proposal for the current conditions.
type Suggestion struct {
	Message    string                 `json:"message"`
	Categories []string               `json:"categories"`
	Items      []*domain.ClothingItem `json:"items"`
}

// Suggest picks catalog items by temperature band. Rain adds an umbrella
// regardless of band.
func (s *ClothingService) Suggest(temperature float64, rainy bool) (*Suggestion, error) {
	var (
		message string
		wanted  []string
	)

	switch {
	case temperature >= 28:
		message = "真夏日です。半袖で十分です。"
		wanted = []string{"半袖Tシャツ", "ショートパンツ"}
	case temperature >= 23:
		message = "暖かい一日です。薄着がおすすめです。"
		wanted = []string{"半袖Tシャツ", "ロングパンツ"}
	case temperature >= 18:
		message = "過ごしやすい気温です。長袖がちょうどいいでしょう。"
		wanted = []string{"長袖シャツ", "ロングパンツ"}
	case temperature >= 12:
		message = "肌寒いので羽織るものがあると安心です。"
		wanted = []string{"長袖シャツ", "カーディガン", "ロングパンツ"}
	case temperature >= 5:
		message = "寒いです。コートを着ていきましょう。"
		wanted = []string{"ニット", "コート", "ロングパンツ"}
	default:
		message = "かなり冷え込みます。しっかり防寒してください。"
		wanted = []string{"ニット", "ダウンジャケット", "ロングパンツ", "マフラー"}
	}

	if rainy {
		wanted = append(wanted, "折りたたみ傘")
	}

	catalog, err := s.storage.ListClothingItems()
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*domain.ClothingItem, len(catalog))
	for _, item := range catalog {
		byName[item.Name] = item
	}

	suggestion := &Suggestion{Message: message}
	for _, name := range wanted {
		item, ok := byName[name]
		if !ok {
			continue
		}
		suggestion.Items = append(suggestion.Items, item)
		suggestion.Categories = append(suggestion.Categories, item.Category)
	}

	return suggestion, nil
}
