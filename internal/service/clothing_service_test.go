package service_test

import (
	"path/filepath"
	"testing"

	"github.com/ymorita/hisho/internal/service"
	"github.com/ymorita/hisho/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSuggestTemperatureBands(t *testing.T) {
	svc := service.NewClothingService(newTestStorage(t))

	tests := []struct {
		name        string
		temperature float64
		rainy       bool
		wantItem    string
		notWantItem string
	}{
		{name: "midsummer", temperature: 32, wantItem: "半袖Tシャツ", notWantItem: "コート"},
		{name: "warm", temperature: 25, wantItem: "半袖Tシャツ", notWantItem: "ショートパンツ"},
		{name: "mild", temperature: 20, wantItem: "長袖シャツ", notWantItem: "半袖Tシャツ"},
		{name: "chilly", temperature: 15, wantItem: "カーディガン", notWantItem: "ダウンジャケット"},
		{name: "cold", temperature: 8, wantItem: "コート", notWantItem: "半袖Tシャツ"},
		{name: "freezing", temperature: -2, wantItem: "ダウンジャケット", notWantItem: "半袖Tシャツ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Suggest(tt.temperature, tt.rainy)
			if err != nil {
				t.Fatalf("Suggest: %v", err)
			}
			if got.Message == "" {
				t.Error("expected a message")
			}

			names := make(map[string]bool, len(got.Items))
			for _, item := range got.Items {
				names[item.Name] = true
			}
			if !names[tt.wantItem] {
				t.Errorf("expected %s in suggestion, got %v", tt.wantItem, names)
			}
			if names[tt.notWantItem] {
				t.Errorf("did not expect %s in suggestion", tt.notWantItem)
			}
		})
	}
}

func TestSuggestRainAddsUmbrella(t *testing.T) {
	svc := service.NewClothingService(newTestStorage(t))

	for _, temperature := range []float64{30, 15, 0} {
		got, err := svc.Suggest(temperature, true)
		if err != nil {
			t.Fatalf("Suggest: %v", err)
		}
		found := false
		for _, item := range got.Items {
			if item.Name == "折りたたみ傘" {
				found = true
			}
		}
		if !found {
			t.Errorf("temperature %.0f: rainy suggestion missing umbrella", temperature)
		}
	}
}

func TestRecordChoicesValidation(t *testing.T) {
	svc := service.NewClothingService(newTestStorage(t))

	if err := svc.RecordChoices(1, "", "晴れ", 20, []int64{1}, false); err == nil {
		t.Error("expected error for empty date")
	}
	if err := svc.RecordChoices(1, "2026-08-28", "晴れ", 20, nil, false); err == nil {
		t.Error("expected error for empty selection")
	}
	if err := svc.RecordChoices(1, "2026-08-28", "晴れ", 20, []int64{1, 2}, true); err != nil {
		t.Errorf("RecordChoices: %v", err)
	}
}
