package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockAnswerClient answers locally. Useful for dev and for the HTTP tests.
type MockAnswerClient struct {
	mu     sync.Mutex
	resets int
	asks   int
}

func NewMockAnswerClient() *MockAnswerClient {
	return &MockAnswerClient{}
}

func (m *MockAnswerClient) ResetSession(ctx context.Context, sessionKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return nil
}

func (m *MockAnswerClient) Ask(ctx context.Context, payload string, sessionKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asks++
	// Priming calls get a short ack, user turns get an echo-style answer.
	if m.asks == 1 {
		return "Ready to talk games.", nil
	}
	return fmt.Sprintf("Good question. About %q: I'd check the catalog entry for details.", lastLine(payload)), nil
}

func lastLine(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			return s[i+1:]
		}
	}
	return s
}
