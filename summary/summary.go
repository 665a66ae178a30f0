// Package summary asks a language model for a prose summary of the parse
// results.
package summary

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed instructions.md
var DefaultInstructions string

// Request carries the instructions and the JSON payload separately so the
// model sees them as distinct blocks.
type Request struct {
	Instructions string
	Payload      json.RawMessage
}

// Summarizer generates one Markdown section from a Request.
type Summarizer interface {
	GenerateSection(ctx context.Context, req Request) (string, error)
}

// Prompt renders req as the single text block sent to the model.
func Prompt(req Request) (string, error) {
	var pretty bytes.Buffer
	payload := req.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		return "", fmt.Errorf("format payload: %w", err)
	}
	return fmt.Sprintf("%s\n\n--- BEGIN PARSER JSON ---\n%s\n--- END PARSER JSON ---",
		strings.TrimSpace(req.Instructions), pretty.String()), nil
}

// MockClient returns seeded responses in order and then echoes the
// instructions. It records every request.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	requests  []Request
}

var _ Summarizer = (*MockClient)(nil)

// NewMockClient returns a client that answers with responses in order.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{responses: responses}
}

// GenerateSection records req and returns the next seeded response.
func (m *MockClient) GenerateSection(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		return "MOCK_RESPONSE::" + req.Instructions, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

// Requests returns a copy of the requests received so far.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// cleanMarkdownOutput strips a fenced code block wrapping the whole reply.
func cleanMarkdownOutput(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```markdown") {
		text = strings.TrimPrefix(text, "```markdown")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
