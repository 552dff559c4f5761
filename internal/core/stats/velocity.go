// Package stats computes reading statistics over in-memory book and session
// snapshots. Everything here is pure aggregation; the data is owned elsewhere.
package stats

import (
	"math"
	"sort"

	"booklore/internal/core/model"
)

// VelocityStat describes one reader-profile category over a collection.
type VelocityStat struct {
	Category      string  `json:"category"`
	Count         int     `json:"count"`
	AveragePages  int     `json:"averagePages"`
	AverageRating float64 `json:"averageRating"`
	Description   string  `json:"description"`
}

var velocityCategories = []string{
	"Speed Readers",
	"Consistent Readers",
	"Selective Readers",
	"Exploratory Readers",
	"Deep Readers",
	"Casual Readers",
	"Quality Seekers",
}

var velocityDescriptions = map[string]string{
	"Speed Readers":       "High completion rate with shorter books",
	"Consistent Readers":  "Steady reading pattern with average-length books",
	"Selective Readers":   "Few books but high completion rate",
	"Exploratory Readers": "Wide variety, many started but not finished",
	"Deep Readers":        "Prefer longer, high-quality books",
	"Casual Readers":      "Mixed reading patterns",
	"Quality Seekers":     "Focus on highly-rated books",
}

// ReadingVelocity buckets books into reader-profile categories and summarizes
// each non-empty bucket, largest first.
func ReadingVelocity(books []model.Book) []VelocityStat {
	if len(books) == 0 {
		return nil
	}

	categories := make(map[string][]model.Book, len(velocityCategories))

	readBooks := make([]model.Book, 0, len(books))
	for _, b := range books {
		if b.ReadStatus == model.ReadStatusRead && pageCount(b) > 0 {
			readBooks = append(readBooks, b)
		}
	}

	completionRate := float64(len(readBooks)) / float64(len(books))
	avgPageCount := 0.0
	if len(readBooks) > 0 {
		total := 0
		for _, b := range readBooks {
			total += pageCount(b)
		}
		avgPageCount = float64(total) / float64(len(readBooks))
	}

	for _, b := range books {
		pages := float64(pageCount(b))
		highRating := hasHighQualityRating(b)
		completed := b.ReadStatus == model.ReadStatusRead
		progress := ReadingProgress(b)

		switch {
		case completionRate > 0.6 && pages > 0 && pages < avgPageCount*0.8:
			categories["Speed Readers"] = append(categories["Speed Readers"], b)
		case pages > avgPageCount*1.5 && highRating:
			categories["Deep Readers"] = append(categories["Deep Readers"], b)
		case highRating && (completed || progress > 0.5):
			categories["Quality Seekers"] = append(categories["Quality Seekers"], b)
		case !completed && progress > 0.1 && progress < 0.8:
			categories["Exploratory Readers"] = append(categories["Exploratory Readers"], b)
		case completed && pages > avgPageCount*0.8 && pages < avgPageCount*1.2:
			categories["Consistent Readers"] = append(categories["Consistent Readers"], b)
		case completionRate > 0.4 && len(books) < 50:
			categories["Selective Readers"] = append(categories["Selective Readers"], b)
		default:
			categories["Casual Readers"] = append(categories["Casual Readers"], b)
		}
	}

	out := make([]VelocityStat, 0, len(velocityCategories))
	for _, category := range velocityCategories {
		members := categories[category]
		if len(members) == 0 {
			continue
		}
		totalPages := 0
		for _, b := range members {
			totalPages += pageCount(b)
		}
		avg := float64(totalPages) / float64(len(members))
		out = append(out, VelocityStat{
			Category:      category,
			Count:         len(members),
			AveragePages:  int(math.Round(avg)),
			AverageRating: round1(averageRating(members)),
			Description:   velocityDescriptions[category],
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ReadingProgress returns the book's best known progress in [0, 1]: finished
// books count as complete, otherwise the maximum across per-format trackers.
func ReadingProgress(b model.Book) float64 {
	if b.ReadStatus == model.ReadStatusRead {
		return 1.0
	}
	best := 0.0
	for _, p := range []*model.FormatProgress{
		b.EpubProgress, b.PdfProgress, b.CbxProgress, b.KoreaderProgress, b.KoboProgress,
	} {
		if p != nil && p.Percentage > best {
			best = p.Percentage
		}
	}
	return best / 100
}

func pageCount(b model.Book) int {
	if b.Metadata == nil || b.Metadata.PageCount == nil {
		return 0
	}
	return *b.Metadata.PageCount
}

func hasHighQualityRating(b model.Book) bool {
	md := b.Metadata
	if md == nil {
		return false
	}
	return floatOrZero(md.GoodreadsRating) >= 4.0 ||
		floatOrZero(md.AmazonRating) >= 4.0 ||
		floatOrZero(md.PersonalRating) >= 4.0
}

// averageRating averages the first available rating source per book, in the
// order goodreads, amazon, personal. Books without any rating are skipped.
func averageRating(books []model.Book) float64 {
	total := 0.0
	n := 0
	for _, b := range books {
		md := b.Metadata
		if md == nil {
			continue
		}
		r := floatOrZero(md.GoodreadsRating)
		if r == 0 {
			r = floatOrZero(md.AmazonRating)
		}
		if r == 0 {
			r = floatOrZero(md.PersonalRating)
		}
		if r == 0 {
			continue
		}
		total += r
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func floatOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
