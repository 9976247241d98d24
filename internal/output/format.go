// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"zendo/internal/service"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}  ({PRIORITY}, {CATEGORY})\n" followed by one
// indented line per subtask.
func FormatTask(w io.Writer, num int, task service.Task) {
	box := "[ ]"
	if task.Completed {
		box = "[x]"
	}
	fmt.Fprintf(w, "%4d  %s %s  (%s, %s)\n", num, box, normalizeTitle(task.Title), task.Priority, normalizeCategory(task.Category))
	for _, sub := range task.Subtasks {
		fmt.Fprintf(w, "          - %s\n", normalizeTitle(sub))
	}
}

// FormatCategory formats a category line for the categories command.
func FormatCategory(w io.Writer, name string, count int) {
	fmt.Fprintf(w, "%-20s %d\n", normalizeCategory(name), count)
}

// Stats summarizes a collection.
type Stats struct {
	Total      int
	Completed  int
	ByPriority map[service.Priority]int
}

// ComputeStats counts tasks by completion and priority.
func ComputeStats(tasks []service.Task) Stats {
	s := Stats{Total: len(tasks), ByPriority: make(map[service.Priority]int)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
		s.ByPriority[t.Priority]++
	}
	return s
}

// Percent returns the completion percentage rounded down.
func (s Stats) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return s.Completed * 100 / s.Total
}

// FormatStats writes the stats block.
func FormatStats(w io.Writer, s Stats) {
	fmt.Fprintf(w, "total      %d\n", s.Total)
	fmt.Fprintf(w, "completed  %d (%d%%)\n", s.Completed, s.Percent())
	fmt.Fprintf(w, "open       %d\n", s.Total-s.Completed)
	for _, p := range service.Priorities {
		fmt.Fprintf(w, "%-10s %d\n", p, s.ByPriority[p])
	}
}

// FormatSubtasks writes a numbered subtask list.
func FormatSubtasks(w io.Writer, subtasks []string) {
	for i, sub := range subtasks {
		fmt.Fprintf(w, "%4d  %s\n", i+1, normalizeTitle(sub))
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func normalizeCategory(name string) string {
	if strings.TrimSpace(name) == "" {
		return "(none)"
	}
	return name
}
