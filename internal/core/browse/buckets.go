package browse

import (
	"math"
	"strconv"

	"booklore/internal/core/model"
)

// Tables holds the range-bucket tables the filter engine classifies against.
// They are externally-owned configuration; the engine never mutates them.
type Tables struct {
	Rating     []model.RangeBucket `yaml:"rating"`
	FileSize   []model.RangeBucket `yaml:"fileSize"`
	PageCount  []model.RangeBucket `yaml:"pageCount"`
	MatchScore []model.RangeBucket `yaml:"matchScore"`
}

// DefaultTables returns the built-in bucket tables. Buckets are ordered by Min
// and non-overlapping; the top bucket of a bounded scale closes just past the
// scale top so a perfect score still lands.
func DefaultTables() Tables {
	return Tables{
		Rating: []model.RangeBucket{
			{ID: "below-2", Min: 0, Max: 2},
			{ID: "2-3", Min: 2, Max: 3},
			{ID: "3-4", Min: 3, Max: 4},
			{ID: "4-5", Min: 4, Max: 5.01},
		},
		FileSize: []model.RangeBucket{
			{ID: "under-1mb", Min: 0, Max: 1024},
			{ID: "1-5mb", Min: 1024, Max: 5120},
			{ID: "5-20mb", Min: 5120, Max: 20480},
			{ID: "20-100mb", Min: 20480, Max: 102400},
			{ID: "over-100mb", Min: 102400, Max: math.MaxFloat64},
		},
		PageCount: []model.RangeBucket{
			{ID: "under-100", Min: 0, Max: 100},
			{ID: "100-300", Min: 100, Max: 300},
			{ID: "300-500", Min: 300, Max: 500},
			{ID: "over-500", Min: 500, Max: math.MaxFloat64},
		},
		MatchScore: []model.RangeBucket{
			{ID: "low", Min: 0, Max: 0.5},
			{ID: "medium", Min: 0.5, Max: 0.8},
			{ID: "high", Min: 0.8, Max: 1.01},
		},
	}
}

// InRange reports whether value belongs to the bucket with the given id.
// Membership is half-open: Min <= value < Max. A nil value or an unknown
// bucket id is never a match.
func InRange(value *float64, bucketID string, table []model.RangeBucket) bool {
	if value == nil {
		return false
	}
	for _, r := range table {
		if r.ID == bucketID {
			return *value >= r.Min && *value < r.Max
		}
	}
	return false
}

// InRange10 classifies a personal rating on the 0-10 integer scale. Unlike the
// continuous rating sources this rounds to the nearest integer and matches its
// string form against the bucket id directly, so each bucket is a single point.
func InRange10(value *float64, bucketID string) bool {
	if value == nil {
		return false
	}
	return strconv.Itoa(int(math.Round(*value))) == bucketID
}
