package selection

import (
	"errors"
	"strings"
)

// ErrUnrecognized is returned for answers that are neither yes nor no
var ErrUnrecognized = errors.New("please enter 'y' or 'n'")

var (
	affirmative = map[string]bool{"y": true, "yes": true}
	negative    = map[string]bool{"n": true, "no": true}
)

// ParseConfirmation maps y/yes to true and n/no to false, ignoring case and
// surrounding whitespace
func ParseConfirmation(input string) (bool, error) {
	answer := strings.ToLower(strings.TrimSpace(input))
	switch {
	case affirmative[answer]:
		return true, nil
	case negative[answer]:
		return false, nil
	default:
		return false, ErrUnrecognized
	}
}
