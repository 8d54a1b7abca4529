package service_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ymorita/hisho/internal/clients/holidays"
	"github.com/ymorita/hisho/internal/service"
)

type countingDoer struct {
	calls int
	body  string
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(d.body)),
	}, nil
}

func TestHolidayServiceCachesInStorage(t *testing.T) {
	store := newTestStorage(t)
	doer := &countingDoer{body: `[
		{"date": "2026-01-01", "localName": "元日", "name": "New Year's Day"},
		{"date": "2026-05-05", "localName": "こどもの日", "name": "Children's Day"}
	]`}

	client := holidays.NewClientWithDoer("JP", "http://example.test", doer)
	svc := service.NewHolidayService(store, client, "JP", logrus.NewEntry(logrus.New()))

	set, err := svc.Holidays(context.Background(), 2026)
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	if !set["2026-01-01"] || !set["2026-05-05"] {
		t.Fatalf("missing holidays in %v", set)
	}
	if doer.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", doer.calls)
	}

	// A second service over the same storage must hit the cache, not the
	// network.
	svc2 := service.NewHolidayService(store, client, "JP", logrus.NewEntry(logrus.New()))
	set2, err := svc2.Holidays(context.Background(), 2026)
	if err != nil {
		t.Fatalf("Holidays (cached): %v", err)
	}
	if !set2["2026-01-01"] {
		t.Fatalf("cached set missing holiday: %v", set2)
	}
	if doer.calls != 1 {
		t.Fatalf("cached read should not call upstream, got %d calls", doer.calls)
	}
}

func TestHolidayServiceRegionsAreIndependent(t *testing.T) {
	store := newTestStorage(t)
	jpDoer := &countingDoer{body: `[{"date": "2026-01-01", "localName": "元日", "name": "New Year's Day"}]`}
	usDoer := &countingDoer{body: `[{"date": "2026-07-04", "localName": "Independence Day", "name": "Independence Day"}]`}

	jp := service.NewHolidayService(store, holidays.NewClientWithDoer("JP", "http://example.test", jpDoer), "JP", logrus.NewEntry(logrus.New()))
	us := service.NewHolidayService(store, holidays.NewClientWithDoer("US", "http://example.test", usDoer), "US", logrus.NewEntry(logrus.New()))

	jpSet, err := jp.Holidays(context.Background(), 2026)
	if err != nil {
		t.Fatal(err)
	}
	usSet, err := us.Holidays(context.Background(), 2026)
	if err != nil {
		t.Fatal(err)
	}

	if !jpSet["2026-01-01"] || jpSet["2026-07-04"] {
		t.Errorf("JP set wrong: %v", jpSet)
	}
	if !usSet["2026-07-04"] || usSet["2026-01-01"] {
		t.Errorf("US set wrong: %v", usSet)
	}
	if usDoer.calls != 1 {
		t.Errorf("US cache must not be served from the JP rows, got %d calls", usDoer.calls)
	}
}
