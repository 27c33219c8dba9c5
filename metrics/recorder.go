// Package metrics records token and cost estimates for model requests.
//
// Information Hiding:
// - Token estimation strategy behind the Estimator interface
// - Pricing arithmetic
// - Locking around running totals and the append-only log
package metrics

import (
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"
)

// Estimator approximates the token count of a piece of text.
type Estimator interface {
	Estimate(text string) int
}

// HeuristicEstimator counts one token per four characters of text.
type HeuristicEstimator struct{}

// Estimate returns the rune count of text divided by four, so multi-byte
// scripts are not overcounted.
func (HeuristicEstimator) Estimate(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// Pricing holds per-million-token rates in USD.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing matches Gemini 2.5 Flash list prices.
var DefaultPricing = Pricing{InputPerMillion: 0.15, OutputPerMillion: 0.60}

// Cost returns the estimated cost of a request.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1_000_000*p.InputPerMillion +
		float64(outputTokens)/1_000_000*p.OutputPerMillion
}

// Entry is one recorded orchestration outcome.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	Type         string    `json:"type"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostEstimate float64   `json:"cost_estimate"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
}

// Totals is a snapshot of the running counters.
type Totals struct {
	Requests          int       `json:"total_requests"`
	InputTokens       int       `json:"total_input_tokens"`
	OutputTokens      int       `json:"total_output_tokens"`
	CostEstimate      float64   `json:"total_cost_estimate"`
	Failures          int       `json:"failures"`
	SessionStart      time.Time `json:"session_start"`
	AverageCostPerReq float64   `json:"average_cost_per_request"`
}

// Recorder accumulates metric entries. Safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	estimator Estimator
	pricing   Pricing
	logger    *slog.Logger
	now       func() time.Time

	totals  Totals
	entries []Entry
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithEstimator replaces the heuristic token estimator.
func WithEstimator(e Estimator) Option {
	return func(r *Recorder) { r.estimator = e }
}

// WithPricing overrides the cost rates.
func WithPricing(p Pricing) Option {
	return func(r *Recorder) { r.pricing = p }
}

// WithLogger sets the logger used for each recorded entry.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a Recorder with the heuristic estimator and default pricing.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		estimator: HeuristicEstimator{},
		pricing:   DefaultPricing,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.totals.SessionStart = r.now()
	return r
}

// EstimateTokens estimates tokens for text using the configured estimator.
func (r *Recorder) EstimateTokens(text string) int {
	return r.estimator.Estimate(text)
}

// Record appends an entry and updates the totals. An empty errMsg means none.
func (r *Recorder) Record(requestType string, inputTokens, outputTokens int, success bool, errMsg string) Entry {
	entry := Entry{
		Type:         requestType,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostEstimate: r.pricing.Cost(inputTokens, outputTokens),
		Success:      success,
		Error:        errMsg,
	}

	r.mu.Lock()
	entry.Timestamp = r.now()
	r.entries = append(r.entries, entry)
	r.totals.Requests++
	r.totals.InputTokens += inputTokens
	r.totals.OutputTokens += outputTokens
	r.totals.CostEstimate += entry.CostEstimate
	if !success {
		r.totals.Failures++
	}
	r.mu.Unlock()

	attrs := []any{
		"type", requestType,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"cost", entry.CostEstimate,
		"success", success,
	}
	if errMsg != "" {
		attrs = append(attrs, "error", errMsg)
		r.logger.Warn("model request", attrs...)
	} else {
		r.logger.Info("model request", attrs...)
	}

	return entry
}

// Totals returns the running counters.
func (r *Recorder) Totals() Totals {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.totals
	if t.Requests > 0 {
		t.AverageCostPerReq = t.CostEstimate / float64(t.Requests)
	}
	return t
}

// Entries returns a copy of the full log in insertion order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Recent returns up to n of the newest entries, oldest first.
func (r *Recorder) Recent(n int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 {
		return []Entry{}
	}
	start := len(r.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]Entry, len(r.entries)-start)
	copy(out, r.entries[start:])
	return out
}

// Reset clears the log and starts a new accounting window.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.totals = Totals{SessionStart: r.now()}
}
