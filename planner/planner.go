// Package planner runs the tool-calling orchestration loop.
//
// Information Hiding:
// - Model call sequencing (first call, dispatch, follow-up) hidden
// - Fallback and error replies chosen internally; callers always get text
// - Metrics recorded exactly once per pass
// - Demo responses used when no provider is configured
package planner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/richinex/tripsense/llm"
	"github.com/richinex/tripsense/model"
	"github.com/richinex/tripsense/prompt"
	"github.com/richinex/tripsense/session"
	"github.com/richinex/tripsense/tools"
	"github.com/samber/lo"
)

// Request types used as metric tags.
const (
	RequestInitialPlan  = "initial_plan"
	RequestChatResponse = "chat_response"
)

// Metric tag suffixes for the non-plain outcomes of a pass.
const (
	suffixFallback         = "_fallback"
	suffixWithFunctions    = "_with_functions"
	suffixFollowUp         = "_follow_up"
	suffixFollowUpFallback = "_follow_up_fallback"
	suffixSaveTrip         = "_save_trip"
	suffixDemo             = "_demo"
)

// Config holds the generation parameters of every model call.
type Config struct {
	Temperature     float32
	MaxOutputTokens int32
	TopP            float32
	ThinkingBudget  int32
	MaxHistory      int
	ModelTimeout    time.Duration
}

// DefaultConfig returns the low-temperature settings used for grounded answers.
func DefaultConfig() Config {
	return Config{
		Temperature:     0.2,
		MaxOutputTokens: 2048,
		TopP:            0.8,
		ThinkingBudget:  0,
		MaxHistory:      prompt.DefaultMaxHistory,
		ModelTimeout:    60 * time.Second,
	}
}

// Planner turns trip forms and chat messages into grounded replies.
type Planner struct {
	provider     llm.Provider
	dispatcher   *tools.Dispatcher
	systemPrompt string
	config       Config
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithProvider sets the model backend. Without one the planner runs in demo mode.
func WithProvider(p llm.Provider) Option {
	return func(pl *Planner) { pl.provider = p }
}

// WithDispatcher sets the tool dispatcher.
func WithDispatcher(d *tools.Dispatcher) Option {
	return func(pl *Planner) { pl.dispatcher = d }
}

// WithSystemPrompt overrides the embedded system instruction.
func WithSystemPrompt(s string) Option {
	return func(pl *Planner) { pl.systemPrompt = s }
}

// WithConfig sets generation parameters.
func WithConfig(c Config) Option {
	return func(pl *Planner) { pl.config = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(pl *Planner) { pl.logger = l }
}

// New creates a planner.
func New(opts ...Option) *Planner {
	p := &Planner{
		config: DefaultConfig(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.systemPrompt == "" {
		p.systemPrompt = prompt.DefaultSystemPrompt()
	}
	if p.dispatcher == nil {
		empty, _ := tools.NewRegistry()
		p.dispatcher = tools.NewDispatcher(empty, p.logger)
	}
	return p
}

// DemoMode reports whether replies come from canned templates.
func (p *Planner) DemoMode() bool {
	return p.provider == nil
}

// PlanTrip generates the first itinerary for a trip form and stores the form
// and itinerary on the session.
func (p *Planner) PlanTrip(ctx context.Context, sess *session.Session, form model.TripForm) string {
	end := sess.BeginTurn()
	defer end()

	sess.SetForm(form)

	userPrompt, err := prompt.RenderTripPrompt(form)
	if err != nil {
		p.logger.Error("trip prompt failed", "error", err)
		sess.Metrics.Record(RequestInitialPlan, 0, 0, false, err.Error())
		return planFailure
	}

	p.logger.Info("planning trip", "session", sess.ID, "destination", form.Destination, "demo", p.DemoMode())

	var (
		reply string
		ok    bool
	)
	if p.DemoMode() {
		reply = demoItinerary(form)
		sess.Metrics.Record(RequestInitialPlan+suffixDemo,
			sess.Metrics.EstimateTokens(userPrompt), sess.Metrics.EstimateTokens(reply), true, "")
		ok = true
	} else {
		reply, ok = p.run(ctx, sess, pass{
			requestType: RequestInitialPlan,
			contents:    userPrompt,
			tokenText:   userPrompt + p.systemPrompt,
			closing:     prompt.ClosingPlan,
			fallback:    planFallback,
			failure:     planFailure,
		})
	}

	if ok {
		sess.SetItinerary(model.Itinerary{
			Prompt:      userPrompt,
			Response:    reply,
			GeneratedAt: p.now().UTC(),
			Demo:        p.DemoMode(),
		})
	}
	return reply
}

// Chat answers one message in the session's conversation and appends both
// sides to its history.
func (p *Planner) Chat(ctx context.Context, sess *session.Session, message string) string {
	end := sess.BeginTurn()
	defer end()

	var reply string
	if p.DemoMode() {
		reply = demoChat(message, sess.HasTrip())
		sess.Metrics.Record(RequestChatResponse+suffixDemo,
			sess.Metrics.EstimateTokens(message), sess.Metrics.EstimateTokens(reply), true, "")
	} else {
		contents := prompt.BuildContext(sess.History(), message, p.config.MaxHistory)
		reply, _ = p.run(ctx, sess, pass{
			requestType: RequestChatResponse,
			contents:    contents,
			tokenText:   contents,
			closing:     prompt.ClosingChat,
			fallback:    chatFallback,
			failure:     chatFailure,
		})
	}

	sess.Append(model.UserMessage(message), model.AssistantMessage(reply))
	return reply
}

// pass describes one orchestration pass.
type pass struct {
	requestType string
	contents    string
	tokenText   string
	closing     string
	fallback    string
	failure     string
}

// run executes one pass and returns the reply and whether the first model
// call succeeded.
func (p *Planner) run(ctx context.Context, sess *session.Session, ps pass) (string, bool) {
	rec := sess.Metrics
	inputTokens := rec.EstimateTokens(ps.tokenText)
	cfg := p.generationConfig()

	resp, err := p.generate(ctx, ps.contents, cfg)
	if err != nil {
		p.logger.Error("model call failed", "type", ps.requestType, "error", err)
		rec.Record(ps.requestType, inputTokens, 0, false, err.Error())
		return ps.failure, false
	}

	text := resp.Text()
	if !resp.HasToolCalls() {
		if strings.TrimSpace(text) == "" {
			p.logger.Warn("empty model response", "type", ps.requestType)
			rec.Record(ps.requestType+suffixFallback, inputTokens, rec.EstimateTokens(ps.fallback), false, "")
			return ps.fallback, true
		}
		rec.Record(ps.requestType, inputTokens, rec.EstimateTokens(text), true, "")
		return text, true
	}

	calls := resp.ToolCalls()
	p.logger.Info("model requested tools", "type", ps.requestType,
		"tools", lo.Map(calls, func(c llm.ToolCall, _ int) string { return c.Name }))

	_, saveAt, isSave := lo.FindIndexOf(calls, func(c llm.ToolCall) bool {
		return c.Name == tools.KindSaveTrip.String()
	})
	if isSave {
		p.dispatcher.DispatchAll(ctx, sess, calls[:saveAt])
		save := calls[saveAt]
		reply, saved := p.saveReply(p.dispatcher.Dispatch(ctx, sess, save.Name, tools.Args(save.Args)))
		rec.Record(ps.requestType+suffixSaveTrip, inputTokens, rec.EstimateTokens(reply), saved, "")
		return reply, true
	}

	results := p.dispatcher.DispatchAll(ctx, sess, calls)
	p.logger.Info("tools dispatched", "type", ps.requestType, "summary", summarize(results))

	lines := lo.Map(results, func(r tools.Result, _ int) string {
		return prompt.ResultLine(r.Name, followUpPayload(r))
	})
	followUp := prompt.FollowUp(ps.contents, lines, text, ps.closing)
	totalInput := inputTokens + rec.EstimateTokens(followUp)

	resp, err = p.generate(ctx, followUp, cfg.WithoutTools())
	if err != nil {
		p.logger.Error("follow-up call failed", "type", ps.requestType, "error", err)
		rec.Record(ps.requestType+suffixFollowUp, totalInput, 0, false, err.Error())
		return followUpFailure + strings.Join(lines, "\n"), true
	}

	final := resp.Text()
	if strings.TrimSpace(final) == "" {
		p.logger.Warn("empty follow-up response", "type", ps.requestType)
		rec.Record(ps.requestType+suffixFollowUpFallback, totalInput, rec.EstimateTokens(followUpFallback), false, "")
		return followUpFallback, true
	}

	rec.Record(ps.requestType+suffixWithFunctions, totalInput, rec.EstimateTokens(final), true, "")
	return final, true
}

func (p *Planner) generationConfig() llm.GenerationConfig {
	return llm.GenerationConfig{
		SystemInstruction: p.systemPrompt,
		Temperature:       p.config.Temperature,
		MaxOutputTokens:   p.config.MaxOutputTokens,
		TopP:              p.config.TopP,
		ThinkingBudget:    p.config.ThinkingBudget,
		Tools:             p.dispatcher.Registry().Declarations(),
	}
}

// generate makes one model call bounded by the configured timeout.
func (p *Planner) generate(ctx context.Context, contents string, cfg llm.GenerationConfig) (llm.Response, error) {
	if p.config.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.ModelTimeout)
		defer cancel()
	}
	return p.provider.Generate(ctx, contents, cfg)
}

// saveReply turns a save_trip result into the terminal reply of the pass.
// Failure causes are logged and replaced by a generic message.
func (p *Planner) saveReply(r tools.Result) (string, bool) {
	if !r.OK() {
		p.logger.Error("save_trip failed", "error", r.Err)
		return failedPrefix + tools.SaveFailedMessage, false
	}
	outcome, ok := r.Output.(tools.SaveOutcome)
	if !ok {
		p.logger.Error("save_trip returned unexpected output", "output", r.Output)
		return failedPrefix + tools.SaveFailedMessage, false
	}
	if outcome.Saved() {
		return savedPrefix + outcome.Message, true
	}
	return failedPrefix + outcome.Message, false
}

// followUpPayload is what the model sees for one result: the output, or a
// user-safe error sentence.
func followUpPayload(r tools.Result) any {
	if r.OK() {
		return r.Output
	}
	return map[string]string{"error": friendlyToolError(r)}
}

