package text

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Date notations recognized by ExtractDates.
var (
	numericDateRe = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	kanjiDateRe   = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
)

// relativeDay maps relative-date keywords to day offsets. Longer phrases are
// listed first so "day after tomorrow" is not matched as "tomorrow".
var relativeDay = []struct {
	keyword string
	offset  int
}{
	{"day after tomorrow", 2},
	{"tomorrow", 1},
	{"today", 0},
	{"明後日", 2},
	{"明日", 1},
	{"今日", 0},
}

// ExtractDates scans text for dates and returns them normalized to
// YYYY-MM-DD, evaluating relative keywords against the current time.
func ExtractDates(text string) []string {
	return ExtractDatesAt(text, time.Now())
}

// ExtractDatesAt is ExtractDates with an explicit reference time for the
// relative keywords (今日/明日/明後日, today/tomorrow/day after tomorrow).
//
// Recognized notations: YYYY-MM-DD, YYYY/MM/DD, YYYY年MM月DD日, and the
// relative keywords. Month must be 1-12 and day 1-31; days are not checked
// against the month's actual length, so 2025-02-31 passes. Results are a
// de-duplicated set, returned sorted for determinism.
func ExtractDatesAt(text string, now time.Time) []string {
	seen := make(map[string]struct{})

	for _, re := range []*regexp.Regexp{numericDateRe, kanjiDateRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			if month < 1 || month > 12 || day < 1 || day > 31 {
				continue
			}
			seen[fmt.Sprintf("%04d-%02d-%02d", year, month, day)] = struct{}{}
		}
	}

	remaining := text
	for _, rel := range relativeDay {
		if strings.Contains(remaining, rel.keyword) {
			date := now.AddDate(0, 0, rel.offset).Format("2006-01-02")
			seen[date] = struct{}{}
			// Consume matches so "tomorrow" does not re-fire inside
			// "day after tomorrow".
			remaining = strings.ReplaceAll(remaining, rel.keyword, "")
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
