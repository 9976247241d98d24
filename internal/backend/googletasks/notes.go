package googletasks

import (
	"strings"

	"gopkg.in/yaml.v3"

	"zendo/internal/service"
)

// notesHeader marks a notes field written by this client. Notes without it
// are treated as free text and carry no metadata.
const notesHeader = "# zendo\n"

// meta holds the task fields Google Tasks has no column for.
type meta struct {
	Priority  service.Priority `yaml:"priority,omitempty"`
	Category  string           `yaml:"category,omitempty"`
	CreatedAt int64            `yaml:"created_at,omitempty"`
	Subtasks  []string         `yaml:"subtasks,omitempty"`
}

func encodeNotes(t service.Task) (string, error) {
	data, err := yaml.Marshal(meta{
		Priority:  t.Priority,
		Category:  t.Category,
		CreatedAt: t.CreatedAt,
		Subtasks:  t.Subtasks,
	})
	if err != nil {
		return "", err
	}
	return notesHeader + string(data), nil
}

func decodeNotes(notes string) meta {
	var m meta
	body, ok := strings.CutPrefix(notes, notesHeader)
	if !ok {
		return m
	}
	if err := yaml.Unmarshal([]byte(body), &m); err != nil {
		return meta{}
	}
	return m
}
