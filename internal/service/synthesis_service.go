package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"app/internal/model"
	"app/internal/pubsub"

	"github.com/rs/zerolog"
)

var (
	// ErrEmptyQuery is the user's fault: nothing to synthesize from.
	ErrEmptyQuery = errors.New("user query is required")
	// ErrProviderNotConfigured is the operator's fault: no completion
	// backend is wired up.
	ErrProviderNotConfigured = errors.New("AI provider not configured")
)

// Guidance messages for soft failures. These resolve to a well-formed
// success:false response, never an error status: unusable model output is
// an expected, user-recoverable condition.
const (
	msgCouldNotUnderstand = "I couldn't understand your requirements. Could you provide more details about your L3 chain?"
	msgIncompleteConfig   = "I couldn't generate a complete configuration. Please try rephrasing your request."
	msgInvalidConfig      = "The generated configuration had invalid values. Please try rephrasing your request."
)

// SynthesisService composes prompt building, the provider call, extraction
// and validation into the end-to-end utterance-to-config operation.
type SynthesisService interface {
	Synthesize(ctx context.Context, userID, userQuery string) (*model.SynthesisResult, error)
}

type synthesisService struct {
	completer Completer
	validator *ConfigValidator
	publisher pubsub.Publisher
	topic     string
	opts      CompletionOptions
	logger    zerolog.Logger
}

// NewSynthesisService creates a SynthesisService. completer may be nil when
// no provider credential is configured; publisher may be nil to disable
// telemetry.
func NewSynthesisService(completer Completer, validator *ConfigValidator, publisher pubsub.Publisher, topic string, opts CompletionOptions, logger zerolog.Logger) SynthesisService {
	return &synthesisService{
		completer: completer,
		validator: validator,
		publisher: publisher,
		topic:     topic,
		opts:      opts,
		logger:    logger.With().Str("service", "SynthesisService").Logger(),
	}
}

// Synthesize turns a natural-language utterance into a validated chain
// configuration. Input and configuration problems return an error;
// unusable model output returns a soft-failure result with a guidance
// message.
func (s *synthesisService) Synthesize(ctx context.Context, userID, userQuery string) (*model.SynthesisResult, error) {
	if strings.TrimSpace(userQuery) == "" {
		return nil, ErrEmptyQuery
	}
	if s.completer == nil {
		return nil, ErrProviderNotConfigured
	}

	prompt := BuildChainPrompt(userQuery)
	rawText, err := s.completer.Complete(ctx, prompt, s.opts)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Provider call failed")
		return nil, err
	}
	s.logger.Debug().Str("user_id", userID).Int("raw_len", len(rawText)).Msg("Received model output")

	data, err := ExtractConfigJSON(rawText)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("No usable payload in model output")
		s.publishOutcome(userID, nil, false)
		return &model.SynthesisResult{Success: false, Message: msgCouldNotUnderstand}, nil
	}

	draft, err := s.validator.ValidateAndNormalize(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Model output failed validation")
		s.publishOutcome(userID, nil, false)
		msg := msgIncompleteConfig
		if errors.Is(err, ErrInvalidConfig) {
			msg = msgInvalidConfig
		}
		return &model.SynthesisResult{Success: false, Message: msg}, nil
	}

	s.publishOutcome(userID, draft, true)
	return &model.SynthesisResult{
		Success: true,
		Config:  draft,
		Message: summaryMessage(draft),
	}, nil
}

// publishOutcome emits a best-effort telemetry event. A short background
// context is used so a client disconnect does not lose the event, and
// publish failures never fail the request.
func (s *synthesisService) publishOutcome(userID string, draft *model.ChainConfigDraft, success bool) {
	if s.publisher == nil {
		return
	}

	event := pubsub.SynthesisEvent{
		UserID:     userID,
		Success:    success,
		OccurredAt: time.Now().UTC(),
	}
	if draft != nil {
		event.ChainID = draft.ChainID
		event.ChainName = draft.Name
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal synthesis event")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
			s.logger.Error().Err(err).Str("topic", s.topic).Msg("Failed to publish synthesis event")
		}
	}()
}

// summaryMessage renders the human-readable recap shown alongside a
// successful configuration.
func summaryMessage(c *model.ChainConfigDraft) string {
	var b strings.Builder
	b.WriteString("I've created a configuration for \"" + c.ChainConfig.ChainName + "\"!\n\n")
	b.WriteString("Here's what I've set up:\n")
	b.WriteString("• Chain ID: " + strconv.FormatInt(c.ChainID, 10) + "\n")
	b.WriteString("• Parent Chain: " + c.ParentChain + "\n")
	b.WriteString("• Validators: " + strconv.Itoa(len(c.Validators)) + "\n")
	b.WriteString("• Native Token: " + c.ChainConfig.NativeToken.Name + " (" + c.ChainConfig.NativeToken.Symbol + ")\n")
	b.WriteString("• Block Time: " + strconv.Itoa(c.ChainConfig.BlockTime) + " seconds\n")
	b.WriteString("• Gas Limit: " + groupThousands(c.ChainConfig.GasLimit) + "\n\n")
	b.WriteString("Click \"Apply Configuration\" to use these settings!")
	return b.String()
}

// groupThousands formats n with comma separators (30000000 -> 30,000,000).
func groupThousands(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
