package selection

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ytget/web-grabber/internal/model"
)

// Selection keywords
const (
	KeywordAll  = "all"
	KeywordNone = "none"
	RangeSep    = "-"
)

// ErrEmpty is returned for blank selection input
var ErrEmpty = errors.New("empty selection")

// IndexError reports a single 1-based index outside [1, Count]
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("invalid number %d: must be between 1 and %d", e.Index, e.Count)
}

// RangeError reports a start-end range that is reversed or leaves [1, Count]
type RangeError struct {
	Start int
	End   int
	Count int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range %d-%d: must satisfy 1 <= start <= end <= %d", e.Start, e.End, e.Count)
}

// SyntaxError reports a token that is neither an integer nor a range
type SyntaxError struct {
	Token string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid token %q", e.Token)
}

// Resolve parses input against a list of n candidates and returns the
// selected zero-based indices, sorted ascending and without duplicates.
// Any invalid token rejects the whole expression.
func Resolve(input string, n int) ([]int, error) {
	choice := strings.ToLower(strings.TrimSpace(input))

	switch choice {
	case KeywordAll:
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	case KeywordNone:
		return []int{}, nil
	case "":
		return nil, ErrEmpty
	}

	selected := make(map[int]struct{})
	for _, token := range strings.Fields(choice) {
		if strings.Contains(token, RangeSep) {
			start, end, err := parseRange(token)
			if err != nil {
				return nil, err
			}
			if start < 1 || end > n || start > end {
				return nil, &RangeError{Start: start, End: end, Count: n}
			}
			for i := start - 1; i < end; i++ {
				selected[i] = struct{}{}
			}
			continue
		}

		idx, err := strconv.Atoi(token)
		if err != nil {
			return nil, &SyntaxError{Token: token}
		}
		if idx < 1 || idx > n {
			return nil, &IndexError{Index: idx, Count: n}
		}
		selected[idx-1] = struct{}{}
	}

	indices := make([]int, 0, len(selected))
	for i := range selected {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices, nil
}

// parseRange splits "a-b" into its bounds
func parseRange(token string) (int, int, error) {
	parts := strings.Split(token, RangeSep)
	if len(parts) != 2 {
		return 0, 0, &SyntaxError{Token: token}
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, &SyntaxError{Token: token}
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, &SyntaxError{Token: token}
	}
	return start, end, nil
}

// Apply returns the links at indices, in the order given
func Apply(links []model.FileLink, indices []int) []model.FileLink {
	out := make([]model.FileLink, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(links) {
			out = append(out, links[i])
		}
	}
	return out
}
