package agenda_test

import (
	"testing"
	"time"

	"github.com/ymorita/hisho/internal/agenda"
	"github.com/ymorita/hisho/internal/domain"
)

func TestClassify(t *testing.T) {
	// 2024-06-09 is a Sunday, 2024-06-08 a Saturday.
	holidays := map[string]bool{
		"2024-06-09": true, // holiday that is also a Sunday
		"2024-06-12": true, // weekday holiday
	}
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		day         time.Time
		wantToday   bool
		wantHoliday bool
		wantTint    string
	}{
		{
			name:        "today on a weekday",
			day:         time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantToday:   true,
			wantHoliday: false,
			wantTint:    domain.TintToday,
		},
		{
			name:        "sunday that is also a listed holiday counts once",
			day:         time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
			wantToday:   false,
			wantHoliday: true,
			wantTint:    domain.TintHoliday,
		},
		{
			name:        "plain sunday is a holiday",
			day:         time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC),
			wantToday:   false,
			wantHoliday: true,
			wantTint:    domain.TintHoliday,
		},
		{
			name:        "weekday holiday",
			day:         time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
			wantToday:   false,
			wantHoliday: true,
			wantTint:    domain.TintHoliday,
		},
		{
			name:        "saturday",
			day:         time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
			wantToday:   false,
			wantHoliday: false,
			wantTint:    domain.TintSaturday,
		},
		{
			name:        "normal weekday",
			day:         time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC),
			wantToday:   false,
			wantHoliday: false,
			wantTint:    domain.TintNone,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			got := agenda.Classify(tt.day, holidays, now)

			if got.IsToday != tt.wantToday {
				t.Errorf("IsToday = %v, want %v", got.IsToday, tt.wantToday)
			}
			if got.IsHoliday != tt.wantHoliday {
				t.Errorf("IsHoliday = %v, want %v", got.IsHoliday, tt.wantHoliday)
			}
			if got.Tint != tt.wantTint {
				t.Errorf("Tint = %q, want %q", got.Tint, tt.wantTint)
			}
			if got.Weekday != tt.day.Weekday() {
				t.Errorf("Weekday = %v, want %v", got.Weekday, tt.day.Weekday())
			}
		})
	}
}

func TestClassifyTodayWinsOverHoliday(t *testing.T) {
	// When today is itself a Sunday holiday, the today tint must win while
	// both flags stay set.
	day := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)
	holidays := map[string]bool{"2024-06-09": true}

	got := agenda.Classify(day, holidays, now)

	if !got.IsToday || !got.IsHoliday {
		t.Errorf("IsToday = %v, IsHoliday = %v, want both true", got.IsToday, got.IsHoliday)
	}
	if got.Tint != domain.TintToday {
		t.Errorf("Tint = %q, want today tint %q", got.Tint, domain.TintToday)
	}
}
