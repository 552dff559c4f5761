package browse

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collators keep internal buffers, so they are pooled rather than shared.
var collators = sync.Pool{New: func() any { return collate.New(language.Und) }}

// Natural compares two strings treating embedded digit runs as numbers by
// magnitude, so "chapter 2" orders before "chapter 10".
func Natural(a, b string) int {
	col := collators.Get().(*collate.Collator)
	defer collators.Put(col)
	return naturalWith(col, a, b)
}

func naturalWith(col *collate.Collator, a, b string) int {
	ar := runs(a)
	br := runs(b)
	n := len(ar)
	if len(br) > n {
		n = len(br)
	}
	for i := 0; i < n; i++ {
		var ac, bc string
		if i < len(ar) {
			ac = ar[i]
		}
		if i < len(br) {
			bc = br[i]
		}
		if ac == "" && bc == "" {
			continue
		}
		if isDigits(ac) && isDigits(bc) {
			if c := compareDigits(ac, bc); c != 0 {
				return c
			}
			continue
		}
		if c := col.CompareString(ac, bc); c != 0 {
			return c
		}
	}
	// All compared positions equal: the shorter run sequence sorts first.
	return len(ar) - len(br)
}

// runs splits s into alternating runs of digits and non-digits. The empty
// string maps to a single empty run.
func runs(s string) []string {
	if s == "" {
		return []string{""}
	}
	var out []string
	var cur strings.Builder
	var curDigits, started bool
	for _, r := range s {
		d := r >= '0' && r <= '9'
		if started && d != curDigits {
			out = append(out, cur.String())
			cur.Reset()
		}
		curDigits = d
		started = true
		cur.WriteRune(r)
	}
	return append(out, cur.String())
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// compareDigits orders two all-digit runs by magnitude. Stripping leading
// zeros and comparing lengths first keeps arbitrarily long runs exact.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
