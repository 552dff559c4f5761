package stats

import (
	"sort"
	"time"

	"booklore/internal/core/model"
)

// HeatmapEntry is the number of reading sessions started on one calendar day.
type HeatmapEntry struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// TimelineEntry summarizes one book's reading activity within a week.
type TimelineEntry struct {
	BookID               string         `json:"bookId"`
	BookTitle            string         `json:"bookTitle"`
	BookType             model.BookType `json:"bookType"`
	StartDate            time.Time      `json:"startDate"`
	EndDate              time.Time      `json:"endDate"`
	TotalSessions        int            `json:"totalSessions"`
	TotalDurationSeconds int64          `json:"totalDurationSeconds"`
}

// SessionHeatmap counts sessions per day for the given year, ordered by date.
func SessionHeatmap(sessions []model.ReadingSession, year int) []HeatmapEntry {
	counts := make(map[string]int)
	for _, s := range sessions {
		if s.StartTime.Year() != year {
			continue
		}
		counts[s.StartTime.Format("2006-01-02")]++
	}

	out := make([]HeatmapEntry, 0, len(counts))
	for date, count := range counts {
		out = append(out, HeatmapEntry{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// SessionTimeline aggregates the sessions falling in the given ISO week by
// book, ordered by first session start. titleOf resolves a book id to its
// display title; unresolvable ids keep an empty title rather than dropping
// the entry.
func SessionTimeline(sessions []model.ReadingSession, year, week int, titleOf func(bookID string) string) []TimelineEntry {
	byBook := make(map[string]*TimelineEntry)
	var order []string

	for _, s := range sessions {
		y, w := s.StartTime.ISOWeek()
		if y != year || w != week {
			continue
		}
		entry, ok := byBook[s.BookID]
		if !ok {
			entry = &TimelineEntry{
				BookID:    s.BookID,
				BookType:  s.BookType,
				StartDate: s.StartTime,
				EndDate:   s.EndTime,
			}
			if titleOf != nil {
				entry.BookTitle = titleOf(s.BookID)
			}
			byBook[s.BookID] = entry
			order = append(order, s.BookID)
		}
		if s.StartTime.Before(entry.StartDate) {
			entry.StartDate = s.StartTime
		}
		if s.EndTime.After(entry.EndDate) {
			entry.EndDate = s.EndTime
		}
		entry.TotalSessions++
		entry.TotalDurationSeconds += s.DurationSeconds
	}

	out := make([]TimelineEntry, 0, len(order))
	for _, id := range order {
		out = append(out, *byBook[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}
