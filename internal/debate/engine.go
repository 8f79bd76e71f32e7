// internal/debate/engine.go
package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"foresight/internal/agent"
	"foresight/internal/forecast"
)

// ErrInsufficientParticipants means a debate could not start: fewer than two
// agents hold a locked forecast. This is the only failure that aborts a run.
var ErrInsufficientParticipants = errors.New("need at least two locked forecasts to debate")

// State is the engine's position in a debate run.
type State int

const (
	StateNotStarted State = iota
	StateOpening
	StateDiscussing
	StateClosing
	StateConcluded
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateOpening:
		return "opening"
	case StateDiscussing:
		return "discussing"
	case StateClosing:
		return "closing"
	case StateConcluded:
		return "concluded"
	default:
		return "unknown"
	}
}

const (
	// conversationWindow bounds how many recent turns feed the next prompt.
	// Deliberately lossy: the full transcript would blow up prompt size.
	conversationWindow = 6

	// minTurnLength rejects degenerate model output. Anything shorter than
	// this is noise, not an argument.
	minTurnLength = 20
)

// Turn is one recorded statement in the transcript. Closing marks the final
// statements that come after the discussion rounds.
type Turn struct {
	Speaker string
	Text    string
	Round   int
	Closing bool
}

// Skip records a turn that was attempted but not recorded, with the reason.
// Skips are part of the run's audit trail and never silently vanish.
type Skip struct {
	Speaker string
	Round   int
	Closing bool
	Reason  string
}

// Participant pairs an agent with its locked forecast.
type Participant struct {
	Agent    *agent.Agent
	Forecast *forecast.Forecast
}

// Result is the hand-off contract to persistence, rendering, and speech:
// the transcript plus the original locked forecasts, with the skip audit.
type Result struct {
	RunID      string
	EventID    string
	EventTitle string
	Consensus  bool
	Opening    string
	Closing    string
	Transcript []Turn
	Forecasts  []*forecast.Forecast
	Skipped    []Skip
}

// Observer receives display events as the debate progresses. Observers must
// be cheap or internally asynchronous: the engine calls them inline and does
// not wait on any downstream effect. Turns are always recorded in the
// transcript before observers see them, so a slow speech sink cannot
// desynchronize the record.
type Observer interface {
	ForecastReady(agentName string, f *forecast.Forecast)
	ModeratorSpoke(text string)
	TurnSpoken(t Turn)
	TurnSkipped(s Skip)
	DebateConcluded(r *Result)
}

// Engine drives one debate run: moderator opening, fixed-order discussion
// rounds, closing statements. It exclusively owns the transcript for the
// run's duration.
type Engine struct {
	moderator Moderator
	rounds    int
	policy    RetryPolicy
	observers []Observer
	logger    *zap.Logger
	state     State
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRounds sets the number of discussion rounds.
func WithRounds(r int) EngineOption {
	return func(e *Engine) {
		if r > 0 {
			e.rounds = r
		}
	}
}

// WithModerator swaps the framing policy.
func WithModerator(m Moderator) EngineOption {
	return func(e *Engine) { e.moderator = m }
}

// WithRetryPolicy replaces the per-turn retry policy.
func WithRetryPolicy(p RetryPolicy) EngineOption {
	return func(e *Engine) { e.policy = p }
}

// WithObserver registers a display/speech observer. May be used repeatedly.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a debate engine with three rounds and the template
// moderator unless configured otherwise.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		moderator: TemplateModerator{},
		rounds:    3,
		policy:    DefaultRetryPolicy(),
		logger:    zap.NewNop(),
		state:     StateNotStarted,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the engine's current position in the run.
func (e *Engine) State() State { return e.state }

func (e *Engine) setState(s State) {
	e.state = s
	e.logger.Debug("debate state", zap.String("state", s.String()))
}

// Run executes one full debate over the given participants, in the order
// given. Participants without a usable provider connection are dropped up
// front. Everything short of InsufficientParticipants is absorbed: failed
// turns are skipped and audited, and the run carries on with whoever can
// still speak.
func (e *Engine) Run(ctx context.Context, event *forecast.EventRecord, participants []Participant) (*Result, error) {
	result := &Result{
		RunID:      uuid.NewString(),
		EventID:    event.EventID,
		EventTitle: event.Title,
	}

	var active []Participant
	for _, p := range participants {
		if p.Agent.Active() && p.Forecast != nil {
			active = append(active, p)
			result.Forecasts = append(result.Forecasts, p.Forecast)
		}
	}

	if len(active) < 2 {
		return result, fmt.Errorf("%w: have %d", ErrInsufficientParticipants, len(active))
	}

	result.Consensus = forecast.Consensus(result.Forecasts)

	for _, p := range active {
		e.notifyForecastReady(p.Agent.Name(), p.Forecast)
	}

	e.setState(StateOpening)
	result.Opening = e.moderator.Opening(event, result.Forecasts, result.Consensus)
	e.notifyModerator(result.Opening)

	e.setState(StateDiscussing)
	for round := 1; round <= e.rounds; round++ {
		instruction := e.moderator.Instruction(round, result.Consensus)
		for i, p := range active {
			prompt := e.turnPrompt(event, p, active, result.Transcript, round, i, instruction)
			if err := e.takeTurn(ctx, result, p, prompt, round, false); err != nil {
				return result, err
			}
		}
	}

	e.setState(StateClosing)
	for _, p := range active {
		prompt := closingPrompt(p.Forecast)
		if err := e.takeTurn(ctx, result, p, prompt, e.rounds+1, true); err != nil {
			return result, err
		}
	}

	result.Closing = e.moderator.Closing()
	e.notifyModerator(result.Closing)

	e.setState(StateConcluded)
	e.notifyConcluded(result)

	e.logger.Info("debate concluded",
		zap.String("run_id", result.RunID),
		zap.Int("turns", len(result.Transcript)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// takeTurn generates one statement under the retry policy and records it, or
// audits a skip. Only a context failure propagates; everything else resolves
// to a recorded turn or a recorded skip.
func (e *Engine) takeTurn(ctx context.Context, result *Result, p Participant, prompt string, round int, closing bool) error {
	system := fmt.Sprintf("You are %s.\n%s", p.Agent.Name(), p.Agent.Archetype())

	text, err := e.policy.Do(ctx, func() (string, error) {
		return p.Agent.Client().Generate(ctx, prompt, system)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.recordSkip(result, Skip{
			Speaker: p.Agent.Name(),
			Round:   round,
			Closing: closing,
			Reason:  err.Error(),
		})
		return nil
	}

	if len(strings.TrimSpace(text)) < minTurnLength {
		e.recordSkip(result, Skip{
			Speaker: p.Agent.Name(),
			Round:   round,
			Closing: closing,
			Reason:  "response below minimum length",
		})
		return nil
	}

	turn := Turn{
		Speaker: p.Agent.Name(),
		Text:    strings.TrimSpace(text),
		Round:   round,
		Closing: closing,
	}
	result.Transcript = append(result.Transcript, turn)
	e.notifyTurn(turn)
	return nil
}

func (e *Engine) recordSkip(result *Result, s Skip) {
	result.Skipped = append(result.Skipped, s)
	e.logger.Warn("turn skipped",
		zap.String("speaker", s.Speaker),
		zap.Int("round", s.Round),
		zap.String("reason", s.Reason))
	for _, o := range e.observers {
		o.TurnSkipped(s)
	}
}

func (e *Engine) notifyForecastReady(name string, f *forecast.Forecast) {
	for _, o := range e.observers {
		o.ForecastReady(name, f)
	}
}

func (e *Engine) notifyModerator(text string) {
	for _, o := range e.observers {
		o.ModeratorSpoke(text)
	}
}

func (e *Engine) notifyTurn(t Turn) {
	for _, o := range e.observers {
		o.TurnSpoken(t)
	}
}

func (e *Engine) notifyConcluded(r *Result) {
	for _, o := range e.observers {
		o.DebateConcluded(r)
	}
}
