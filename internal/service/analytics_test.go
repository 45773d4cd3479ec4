package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Kosench/shortlink/internal/cache"
	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestAnalytics(store *mockLinkStore, loc *time.Location) *Analytics {
	a := NewAnalytics(store, cache.NewNullCache(), loc, DefaultSeriesDays, zap.NewNop())
	a.now = func() time.Time { return fixedNow }
	return a
}

func addClicks(t *testing.T, store *mockLinkStore, linkID int64, day string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		event := clickEvent(linkID)
		event.Day = day
		if _, err := store.IncrementClicks(context.Background(), event); err != nil {
			t.Fatalf("IncrementClicks() error = %v", err)
		}
	}
}

func TestAnalytics_DailySeries(t *testing.T) {
	store := newMockLinkStore()
	link := seedLink(t, store, "aB3xP9", true)

	addClicks(t, store, link.ID, "2026-03-02", 9) // outside the 7-day window
	addClicks(t, store, link.ID, "2026-03-04", 2)
	addClicks(t, store, link.ID, "2026-03-07", 1)
	addClicks(t, store, link.ID, "2026-03-10", 4)

	series, err := newTestAnalytics(store, time.UTC).DailySeries(context.Background(), link.ID, 0)
	if err != nil {
		t.Fatalf("DailySeries() error = %v", err)
	}

	want := []model.DailyClick{
		{Date: "2026-03-04", Count: 2},
		{Date: "2026-03-05", Count: 0},
		{Date: "2026-03-06", Count: 0},
		{Date: "2026-03-07", Count: 1},
		{Date: "2026-03-08", Count: 0},
		{Date: "2026-03-09", Count: 0},
		{Date: "2026-03-10", Count: 4},
	}

	if len(series) != len(want) {
		t.Fatalf("len(series) = %d, want %d", len(series), len(want))
	}
	var sum int64
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("series[%d] = %+v, want %+v", i, series[i], want[i])
		}
		sum += series[i].Count
	}
	if sum != 7 {
		t.Errorf("sum = %d, want 7 events inside the window", sum)
	}
}

func TestAnalytics_DaysBounds(t *testing.T) {
	store := newMockLinkStore()
	link := seedLink(t, store, "aB3xP9", true)
	a := newTestAnalytics(store, time.UTC)

	tests := []struct {
		name    string
		days    int
		wantLen int
		wantErr bool
	}{
		{"default", 0, DefaultSeriesDays, false},
		{"single day", 1, 1, false},
		{"maximum", MaxSeriesDays, MaxSeriesDays, false},
		{"negative", -1, 0, true},
		{"too many", MaxSeriesDays + 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := a.DailySeries(context.Background(), link.ID, tt.days)
			if tt.wantErr {
				if !apperrors.IsValidationError(err) {
					t.Errorf("DailySeries() error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DailySeries() error = %v", err)
			}
			if len(series) != tt.wantLen {
				t.Fatalf("len(series) = %d, want %d", len(series), tt.wantLen)
			}
			if series[len(series)-1].Date != "2026-03-10" {
				t.Errorf("last date = %s, want today", series[len(series)-1].Date)
			}
			for i := 1; i < len(series); i++ {
				if series[i-1].Date >= series[i].Date {
					t.Fatalf("series not ascending at %d", i)
				}
			}
		})
	}
}

func TestAnalytics_TimeZoneDefinesToday(t *testing.T) {
	store := newMockLinkStore()
	link := seedLink(t, store, "aB3xP9", true)

	auckland, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	series, err := newTestAnalytics(store, auckland).DailySeries(context.Background(), link.ID, 2)
	if err != nil {
		t.Fatalf("DailySeries() error = %v", err)
	}

	// 15:00 UTC on the 10th is already the 11th in Auckland.
	if series[1].Date != "2026-03-11" || series[0].Date != "2026-03-10" {
		t.Errorf("dates = %s, %s", series[0].Date, series[1].Date)
	}
}

func TestAnalytics_DeletedLinkIsNotFound(t *testing.T) {
	store := newMockLinkStore()
	link := seedLink(t, store, "aB3xP9", true)
	addClicks(t, store, link.ID, "2026-03-10", 3)

	a := newTestAnalytics(store, time.UTC)
	if _, err := a.DailySeries(context.Background(), link.ID, 7); err != nil {
		t.Fatalf("DailySeries() error = %v", err)
	}

	if err := store.Delete(context.Background(), link.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := a.DailySeries(context.Background(), link.ID, 7); !apperrors.IsNotFound(err) {
		t.Errorf("DailySeries() after delete error = %v, want not found", err)
	}
}

func TestAnalytics_LinkAnalytics(t *testing.T) {
	store := newMockLinkStore()
	link := seedLink(t, store, "aB3xP9", true)
	addClicks(t, store, link.ID, "2026-03-09", 2)
	addClicks(t, store, link.ID, "2026-03-10", 3)

	a := newTestAnalytics(store, time.UTC)

	resp, err := a.LinkAnalytics(context.Background(), "alice", link.ID, 7)
	if err != nil {
		t.Fatalf("LinkAnalytics() error = %v", err)
	}
	if resp.Total != 5 || resp.Days != 7 || len(resp.Series) != 7 {
		t.Errorf("unexpected response %+v", resp)
	}

	if _, err := a.LinkAnalytics(context.Background(), "bob", link.ID, 7); !apperrors.IsNotFound(err) {
		t.Errorf("LinkAnalytics() for other owner error = %v, want not found", err)
	}
}

func TestAnalytics_TodayIsNeverServedFromCache(t *testing.T) {
	ctx := context.Background()
	store := newMockLinkStore()
	link := seedLink(t, store, "aB3xP9", true)
	addClicks(t, store, link.ID, "2026-03-08", 2)

	mc := newMemoryCache()
	a := NewAnalytics(store, mc, time.UTC, DefaultSeriesDays, zap.NewNop())
	a.now = func() time.Time { return fixedNow }

	before, err := a.DailySeries(ctx, link.ID, 0)
	if err != nil {
		t.Fatalf("DailySeries() error = %v", err)
	}
	if got := before[6]; got.Date != "2026-03-10" || got.Count != 0 {
		t.Fatalf("today before click = %+v, want 2026-03-10 with 0", got)
	}
	if !mc.has(mc.keys.Analytics(link.ID, DefaultSeriesDays)) {
		t.Fatal("past days were not cached")
	}

	addClicks(t, store, link.ID, "2026-03-10", 1)

	after, err := a.DailySeries(ctx, link.ID, 0)
	if err != nil {
		t.Fatalf("DailySeries() error = %v", err)
	}
	if len(after) != DefaultSeriesDays {
		t.Fatalf("len(series) = %d, want %d", len(after), DefaultSeriesDays)
	}
	if after[6].Count != 1 {
		t.Errorf("today after click = %d, want 1", after[6].Count)
	}
	if after[4] != (model.DailyClick{Date: "2026-03-08", Count: 2}) {
		t.Errorf("cached past day = %+v, want 2026-03-08 with 2", after[4])
	}
}

func TestAnalytics_SingleDayWindowSkipsCache(t *testing.T) {
	store := newMockLinkStore()
	link := seedLink(t, store, "aB3xP9", true)
	addClicks(t, store, link.ID, "2026-03-10", 3)

	mc := newMemoryCache()
	a := NewAnalytics(store, mc, time.UTC, DefaultSeriesDays, zap.NewNop())
	a.now = func() time.Time { return fixedNow }

	series, err := a.DailySeries(context.Background(), link.ID, 1)
	if err != nil {
		t.Fatalf("DailySeries() error = %v", err)
	}
	if len(series) != 1 || series[0] != (model.DailyClick{Date: "2026-03-10", Count: 3}) {
		t.Errorf("series = %+v, want one bucket for today with 3", series)
	}
	if mc.has(mc.keys.Analytics(link.ID, 1)) {
		t.Error("a window of only today must not be cached")
	}
}
