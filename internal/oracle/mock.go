package oracle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/juris/internal/language"
	"github.com/jackzampolin/juris/internal/types"
)

// Mock is an in-memory oracle for tests. Unset funcs answer "valid, fully
// confident" for language checks and "no date" for date extraction.
type Mock struct {
	Latency time.Duration

	LanguageFunc func(req language.Request) (language.Verdict, error)
	BatchFunc    func(items []BatchItem) (map[string]BatchVerdict, error)
	DateFunc     func(legend string, lang types.Language) (string, error)

	languageCalls atomic.Int64
	batchCalls    atomic.Int64
	dateCalls     atomic.Int64

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

// NewMock creates a mock with no latency.
func NewMock() *Mock {
	return &Mock{}
}

// ValidateLanguage implements language.Oracle.
func (m *Mock) ValidateLanguage(ctx context.Context, req language.Request) (language.Verdict, error) {
	m.languageCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return language.Verdict{}, err
	}
	if m.LanguageFunc != nil {
		return m.LanguageFunc(req)
	}
	return language.Verdict{Valid: true, Confidence: 1, Explanation: "mock"}, nil
}

// ValidateBatch answers a batch.
func (m *Mock) ValidateBatch(ctx context.Context, items []BatchItem) (map[string]BatchVerdict, error) {
	m.batchCalls.Add(1)
	m.enter()
	defer m.leave()
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.BatchFunc != nil {
		return m.BatchFunc(items)
	}
	out := make(map[string]BatchVerdict, len(items))
	for _, item := range items {
		out[item.FileName] = BatchVerdict{FileName: item.FileName, Valid: true, Confidence: 1, Explanation: "mock"}
	}
	return out, nil
}

// ExtractDate answers a date request.
func (m *Mock) ExtractDate(ctx context.Context, legend string, lang types.Language) (string, error) {
	m.dateCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	if m.DateFunc != nil {
		return m.DateFunc(legend, lang)
	}
	return "", nil
}

// LanguageCalls returns the number of ValidateLanguage calls.
func (m *Mock) LanguageCalls() int64 { return m.languageCalls.Load() }

// BatchCalls returns the number of ValidateBatch calls.
func (m *Mock) BatchCalls() int64 { return m.batchCalls.Load() }

// DateCalls returns the number of ExtractDate calls.
func (m *Mock) DateCalls() int64 { return m.dateCalls.Load() }

// MaxInFlight returns the highest number of concurrent batch calls observed.
func (m *Mock) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

func (m *Mock) enter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
}

func (m *Mock) leave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func (m *Mock) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.Latency):
		return nil
	}
}
