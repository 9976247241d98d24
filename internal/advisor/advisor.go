// Package advisor asks a generative model for task breakdowns and daily
// advice. Every failure degrades to an empty result; the advisor never makes
// a command fail.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"zendo/internal/config"
	"zendo/internal/service"
)

// CallTimeout bounds one model call.
const CallTimeout = 30 * time.Second

// Insight is the daily advice for a task list.
type Insight struct {
	Tip            string `json:"tip"`
	PriorityAdvice string `json:"priorityAdvice"`
}

// generator is the part of genai.Models the advisor uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Advisor wraps a Gemini model. The zero value is a disabled advisor.
type Advisor struct {
	gen   generator
	model string
	log   *slog.Logger
}

// New creates an advisor. Without an API key the advisor is disabled and
// returns empty results.
func New(ctx context.Context, cfg config.AdvisorConfig, log *slog.Logger) (*Advisor, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.APIKey == "" {
		return &Advisor{log: log}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Advisor{gen: client.Models, model: cfg.Model, log: log}, nil
}

// Enabled reports whether a model is configured.
func (a *Advisor) Enabled() bool {
	return a != nil && a.gen != nil
}

var subtasksSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"subtasks": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"subtasks"},
}

var insightSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"tip":            {Type: genai.TypeString},
		"priorityAdvice": {Type: genai.TypeString},
	},
	Required: []string{"tip", "priorityAdvice"},
}

// Decompose breaks a task title into 3-5 actionable subtasks. It returns an
// empty slice when the advisor is disabled or the call fails.
func (a *Advisor) Decompose(ctx context.Context, title string) []string {
	if !a.Enabled() {
		return []string{}
	}
	prompt := fmt.Sprintf("Break down this task into 3-5 actionable sub-tasks: %q", title)
	text, err := a.generate(ctx, prompt, subtasksSchema)
	if err != nil {
		a.logger().Warn("decomposition failed", "error", err)
		return []string{}
	}
	subtasks, err := parseSubtasks(text)
	if err != nil {
		a.logger().Warn("decomposition failed", "error", err)
		return []string{}
	}
	return subtasks
}

// Insights returns a short tip and the task to prioritize today, or nil when
// the advisor is disabled or the call fails.
func (a *Advisor) Insights(ctx context.Context, tasks []service.Task) *Insight {
	if !a.Enabled() || len(tasks) == 0 {
		return nil
	}
	prompt := fmt.Sprintf("Based on my current todo list: %s. Provide a short, 2-sentence motivational tip "+
		"and identify one critical task that should be prioritized today.", summarize(tasks))
	text, err := a.generate(ctx, prompt, insightSchema)
	if err != nil {
		a.logger().Warn("insight failed", "error", err)
		return nil
	}
	ins, err := parseInsight(text)
	if err != nil {
		a.logger().Warn("insight failed", "error", err)
		return nil
	}
	return ins
}

func (a *Advisor) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	a.logger().Debug("calling model", "model", a.model)
	resp, err := a.gen.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (a *Advisor) logger() *slog.Logger {
	if a.log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.log
}

func summarize(tasks []service.Task) string {
	parts := make([]string, len(tasks))
	for i, t := range tasks {
		state := "Pending"
		if t.Completed {
			state = "Done"
		}
		parts[i] = fmt.Sprintf("%s (%s)", t.Title, state)
	}
	return strings.Join(parts, ", ")
}

func parseSubtasks(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	var out struct {
		Subtasks []string `json:"subtasks"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("parse subtasks: %w", err)
	}
	subtasks := make([]string, 0, len(out.Subtasks))
	for _, s := range out.Subtasks {
		if s = strings.TrimSpace(s); s != "" {
			subtasks = append(subtasks, s)
		}
	}
	return subtasks, nil
}

func parseInsight(text string) (*Insight, error) {
	var ins Insight
	if err := json.Unmarshal([]byte(text), &ins); err != nil {
		return nil, fmt.Errorf("parse insight: %w", err)
	}
	if ins.Tip == "" && ins.PriorityAdvice == "" {
		return nil, fmt.Errorf("parse insight: empty response")
	}
	return &ins, nil
}
