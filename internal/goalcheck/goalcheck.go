// Package goalcheck asks a chat model to score a writing goal and falls back
// to fixed heuristic scores when the model is unavailable or replies with
// something unparseable.
package goalcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alphax/wordtrack/internal/budget"
	"github.com/alphax/wordtrack/internal/cache"
	"github.com/alphax/wordtrack/internal/llm"
	"github.com/alphax/wordtrack/internal/wordcount"
)

// Goal is what a student submits for validation.
type Goal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// TargetWords is the word-count target, zero when unspecified.
	TargetWords int `json:"targetWords,omitempty"`
	// SourceURL is the document the goal is tracked against.
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Assessment is the validation verdict. Scores are 0..100.
type Assessment struct {
	Valid        bool     `json:"valid"`
	Specificity  int      `json:"specificity"`
	Measurable   int      `json:"measurability"`
	Ambition     int      `json:"ambition"`
	Overall      int      `json:"overall"`
	Feedback     string   `json:"feedback"`
	Suggestions  []string `json:"suggestions,omitempty"`
	FromFallback bool     `json:"fromFallback"`
}

// replyTokens is reserved for the model's JSON reply.
const replyTokens = 512

// PassScore is the overall score at or above which a goal is valid.
const PassScore = 60

// Checker validates goals.
type Checker struct {
	Client llm.Client
	Model  string
	Cache  *cache.LLMCache
	// SystemPrompt, when non-empty, replaces the default instructions.
	SystemPrompt string
}

// Check scores g. It only fails for an empty goal; model and parse failures
// produce a fallback assessment.
func (c *Checker) Check(ctx context.Context, g Goal) (Assessment, error) {
	if strings.TrimSpace(g.Title) == "" && strings.TrimSpace(g.Description) == "" {
		return Assessment{}, errors.New("goal has no title or description")
	}
	if c == nil || c.Client == nil || strings.TrimSpace(c.Model) == "" {
		return Fallback(g), nil
	}
	sys := systemMessage()
	if strings.TrimSpace(c.SystemPrompt) != "" {
		sys = c.SystemPrompt
	}
	if room := budget.Remaining(c.Model, sys, replyTokens); budget.EstimateTokens(g.Description) > room {
		g.Description, _ = budget.Truncate(g.Description, room)
		log.Debug().Str("model", c.Model).Int("tokens", room).Msg("goal description truncated to fit context")
	}
	user := userMessage(g)
	key := cache.KeyFrom(c.Model, sys+"\n\n"+user)
	if raw, ok, _ := c.Cache.Get(ctx, key); ok {
		if a, err := parseAssessment(string(raw)); err == nil {
			return a, nil
		}
	}

	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: sys},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
		N:           1,
	})
	if err != nil {
		log.Warn().Err(err).Str("model", c.Model).Msg("goal validation call failed; using fallback")
		return Fallback(g), nil
	}
	if len(resp.Choices) == 0 {
		log.Warn().Str("model", c.Model).Msg("goal validation returned no choices; using fallback")
		return Fallback(g), nil
	}
	a, err := parseAssessment(resp.Choices[0].Message.Content)
	if err != nil {
		log.Warn().Err(err).Str("model", c.Model).Msg("unparseable goal validation reply; using fallback")
		return Fallback(g), nil
	}
	if b, err := json.Marshal(a); err == nil {
		_ = c.Cache.Save(ctx, key, b)
	}
	return a, nil
}

func systemMessage() string {
	return "You review student writing goals. Respond with strict JSON only: " +
		`{"specificity":int,"measurability":int,"ambition":int,"overall":int,"feedback":string,"suggestions":string[]}. ` +
		"Scores are integers from 0 to 100. A good goal names a concrete topic, a measurable word-count target and a realistic scope."
}

func userMessage(g Goal) string {
	var sb strings.Builder
	sb.WriteString("Title: ")
	sb.WriteString(strings.TrimSpace(g.Title))
	sb.WriteString("\nDescription: ")
	sb.WriteString(strings.TrimSpace(g.Description))
	if g.TargetWords > 0 {
		fmt.Fprintf(&sb, "\nTarget words: %d", g.TargetWords)
	}
	if g.SourceURL != "" {
		sb.WriteString("\nDocument: ")
		sb.WriteString(g.SourceURL)
	}
	return sb.String()
}

// parseAssessment decodes the first JSON object found in reply, tolerating
// surrounding prose and code fences.
func parseAssessment(reply string) (Assessment, error) {
	obj, ok := FirstJSONObject(reply)
	if !ok {
		return Assessment{}, errors.New("no JSON object in reply")
	}
	var a Assessment
	if err := json.Unmarshal([]byte(obj), &a); err != nil {
		return Assessment{}, fmt.Errorf("decode assessment: %w", err)
	}
	a.Specificity = clamp(a.Specificity)
	a.Measurable = clamp(a.Measurable)
	a.Ambition = clamp(a.Ambition)
	if a.Overall == 0 {
		a.Overall = (a.Specificity + a.Measurable + a.Ambition) / 3
	}
	a.Overall = clamp(a.Overall)
	a.Valid = a.Overall >= PassScore
	a.FromFallback = false
	return a, nil
}

// FirstJSONObject returns the first balanced {...} in s. Braces inside JSON
// strings are ignored.
func FirstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Fallback scores a goal from fixed per-criterion values.
func Fallback(g Goal) Assessment {
	text := strings.TrimSpace(g.Title + " " + g.Description)
	a := Assessment{Specificity: 40, Measurable: 30, Ambition: 50, FromFallback: true}
	var suggestions []string
	if wordcount.Count(g.Description) >= 12 {
		a.Specificity = 75
	} else {
		suggestions = append(suggestions, "Describe the topic and scope in at least one full sentence.")
	}
	if g.TargetWords > 0 || strings.IndexFunc(text, unicode.IsDigit) >= 0 {
		a.Measurable = 80
	} else {
		suggestions = append(suggestions, "Add a word-count target so progress can be measured.")
	}
	if g.TargetWords >= 500 {
		a.Ambition = 70
	}
	a.Overall = (a.Specificity + a.Measurable + a.Ambition) / 3
	a.Valid = a.Overall >= PassScore
	a.Suggestions = suggestions
	if a.Valid {
		a.Feedback = "Goal looks specific and measurable."
	} else {
		a.Feedback = "Goal needs more detail before it can be tracked."
	}
	return a
}
