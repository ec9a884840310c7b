package text

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)

func containsDate(dates []string, want string) bool {
	for _, d := range dates {
		if d == want {
			return true
		}
	}
	return false
}

func TestExtractDatesNumeric(t *testing.T) {
	dates := ExtractDatesAt("会議は2025-04-23です", testNow)
	if !containsDate(dates, "2025-04-23") {
		t.Errorf("expected 2025-04-23 in %v", dates)
	}

	dates = ExtractDatesAt("deadline: 2025/4/9", testNow)
	if !containsDate(dates, "2025-04-09") {
		t.Errorf("expected 2025-04-09 in %v", dates)
	}
}

func TestExtractDatesKanji(t *testing.T) {
	dates := ExtractDatesAt("2025年4月23日に提出", testNow)
	if !containsDate(dates, "2025-04-23") {
		t.Errorf("expected 2025-04-23 in %v", dates)
	}
}

func TestExtractDatesRelativeKeywords(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"今日中に提出", "2025-04-20"},
		{"明日の予定", "2025-04-21"},
		{"明後日にしよう", "2025-04-22"},
		{"do it today", "2025-04-20"},
		{"see you tomorrow", "2025-04-21"},
		{"the day after tomorrow works", "2025-04-22"},
	}
	for _, tc := range cases {
		dates := ExtractDatesAt(tc.text, testNow)
		if !containsDate(dates, tc.want) {
			t.Errorf("ExtractDatesAt(%q) = %v, want %s", tc.text, dates, tc.want)
		}
	}
}

func TestExtractDatesDayAfterTomorrowDoesNotDoubleMatch(t *testing.T) {
	dates := ExtractDatesAt("day after tomorrow", testNow)
	if len(dates) != 1 || dates[0] != "2025-04-22" {
		t.Errorf("expected only 2025-04-22, got %v", dates)
	}
}

func TestExtractDatesValidation(t *testing.T) {
	if dates := ExtractDatesAt("2025-13-01", testNow); len(dates) != 0 {
		t.Errorf("month 13 should be rejected, got %v", dates)
	}
	if dates := ExtractDatesAt("2025-01-32", testNow); len(dates) != 0 {
		t.Errorf("day 32 should be rejected, got %v", dates)
	}
	// Day count is not validated against the month. Accepted as-is.
	if dates := ExtractDatesAt("2025-02-31", testNow); !containsDate(dates, "2025-02-31") {
		t.Errorf("2025-02-31 should pass the range check, got %v", dates)
	}
}

func TestExtractDatesDeduplicates(t *testing.T) {
	dates := ExtractDatesAt("2025-04-23と2025年4月23日、どちらも同じ", testNow)
	if len(dates) != 1 {
		t.Errorf("expected one unique date, got %v", dates)
	}
}

func TestExtractDatesNoMatch(t *testing.T) {
	if dates := ExtractDatesAt("nothing datelike here", testNow); len(dates) != 0 {
		t.Errorf("expected no dates, got %v", dates)
	}
}
