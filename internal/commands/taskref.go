package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// TaskRef represents a parsed task reference: either a 1-based position in
// the listed collection or a task id.
type TaskRef struct {
	Num int    // 1-based position, 0 if ID is set
	ID  string // full task id, "" if Num is set
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
// 1. No args or a blank first arg → error: task reference required
// 2. If first arg is all digits → position reference
// 3. Otherwise the first arg is taken as a task id
// Extra args are an error, so a title typed by mistake is not ignored.
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	ref := strings.TrimSpace(args[0])
	if isAllDigits(ref) {
		num, err := strconv.Atoi(ref)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", ref)
		}
		return TaskRef{Num: num}, nil
	}
	return TaskRef{ID: ref}, nil
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Num)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
