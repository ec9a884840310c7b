package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedResponse indicates the provider replied, but not with the JSON
// shape the extraction prompt asked for. Callers are expected to detect it
// with errors.Is and fall back to a documented default (e.g. an empty task
// list) rather than guessing at the reply's meaning.
var ErrMalformedResponse = errors.New("malformed provider response")

const taskExtractionPrompt = `Extract actionable to-do items from the user's message.
Respond with ONLY a JSON object of this exact shape, no prose:
{"tasks": ["first task", "second task"]}
If there are no tasks, respond with {"tasks": []}.`

const journalSummaryPrompt = `Summarize the user's journal entry in one short sentence, in the entry's own language. Respond with the sentence only.`

// taskExtraction is the only reply shape ExtractTasks accepts.
type taskExtraction struct {
	Tasks []string `json:"tasks"`
}

// ExtractTasks asks the provider to pull to-do items out of free text.
// A reply that is not exactly the expected JSON object fails with an error
// wrapping ErrMalformedResponse.
func ExtractTasks(ctx context.Context, p Provider, text string) ([]string, error) {
	resp, err := p.GenerateResponse(ctx, &GenerateRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: taskExtractionPrompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("task extraction failed: %w", err)
	}

	var out taskExtraction
	if err := decodeStrict(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	// Drop empty titles so the store never sees blank tasks.
	tasks := make([]string, 0, len(out.Tasks))
	for _, t := range out.Tasks {
		if t = strings.TrimSpace(t); t != "" {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// SummarizeJournal asks the provider for a one-line summary of a journal
// entry. On failure the caller should fall back to the raw text.
func SummarizeJournal(ctx context.Context, p Provider, text string) (string, error) {
	resp, err := p.GenerateResponse(ctx, &GenerateRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: journalSummaryPrompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("journal summary failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// decodeStrict parses content as exactly one JSON value of the target shape.
// Unknown fields, trailing data, or surrounding prose all fail. A single
// fenced ```json block is unwrapped first, since models add fences even when
// told not to.
func decodeStrict(content string, v interface{}) error {
	content = unwrapJSONFence(strings.TrimSpace(content))

	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	// Anything but EOF after the value means surrounding prose.
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}

// unwrapJSONFence strips a single surrounding ``` or ```json fence.
func unwrapJSONFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := strings.TrimPrefix(s, "```json")
	if rest == s {
		rest = strings.TrimPrefix(s, "```")
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}
