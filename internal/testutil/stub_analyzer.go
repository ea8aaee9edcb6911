package testutil

import (
	"context"
	"sync"

	"github.com/rotor-modal/client/internal/analysis"
	"github.com/rotor-modal/client/internal/models"
)

// StubAnalyzer records submissions and answers with a canned result.
// When Gate is non-nil each call blocks until a value is sent on it or the
// context ends.
type StubAnalyzer struct {
	Result *models.AnalysisResult
	Err    error
	Gate   chan struct{}

	mu       sync.Mutex
	requests []*analysis.SubmissionRequest
}

// NewStubAnalyzer returns an analyzer that succeeds with result.
func NewStubAnalyzer(result *models.AnalysisResult) *StubAnalyzer {
	return &StubAnalyzer{Result: result}
}

func (s *StubAnalyzer) Analyze(ctx context.Context, req *analysis.SubmissionRequest) (*models.AnalysisResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	gate := s.Gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &analysis.Error{Kind: analysis.NetworkFailure, Err: ctx.Err()}
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}

// Calls returns how many submissions reached the analyzer.
func (s *StubAnalyzer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns the recorded submissions.
func (s *StubAnalyzer) Requests() []*analysis.SubmissionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*analysis.SubmissionRequest(nil), s.requests...)
}

// SampleResult is a two-row result with one distinguished value on each
// side of the default threshold.
func SampleResult() *models.AnalysisResult {
	target := "Met"
	return &models.AnalysisResult{
		Results: []models.Row{
			models.NewRow("Mode", 1.0, "Lower Frequency Diff (Hz)", 250.0, "Upper Frequency Diff (Hz)", 412.5),
			models.NewRow("Mode", 2.0, "Lower Frequency Diff (Hz)", 301.0, "Upper Frequency Diff (Hz)", "nan"),
		},
		ModalTarget: &target,
	}
}
