package cleartool

import (
	"context"
	"sync"
)

// MockRunner is a test double for Runner. It records every invocation and
// answers from Outputs keyed by the last argument (the target path or view),
// falling back to Output/Error.
type MockRunner struct {
	Output  []byte
	Error   error
	Outputs map[string][]byte
	Errors  map[string]error

	mu    sync.Mutex
	Calls []MockCall
}

// MockCall captures a single Run invocation.
type MockCall struct {
	Dir  string
	Name string
	Args []string
}

// NewMockRunner creates a new MockRunner with the given default output.
func NewMockRunner(output []byte, err error) *MockRunner {
	return &MockRunner{
		Output: output,
		Error:  err,
	}
}

// Run records the call and returns the predefined output or error.
func (m *MockRunner) Run(_ context.Context, dir string, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Dir: dir, Name: name, Args: append([]string(nil), args...)})

	key := ""
	if len(args) > 0 {
		key = args[len(args)-1]
	}
	if err, ok := m.Errors[key]; ok {
		return nil, err
	}
	if out, ok := m.Outputs[key]; ok {
		return out, nil
	}
	return m.Output, m.Error
}

// Compile-time interface conformance check.
var _ Runner = (*MockRunner)(nil)
