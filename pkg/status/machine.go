package status

import (
	"context"
	"log/slog"
	"time"
)

// Default reset timeouts per sub-handler.
const (
	speechTimeout         = 6 * time.Second
	utteranceTimeout      = 6 * time.Second
	spinnerDefaultTimeout = 20 * time.Second
)

// Machine fans lifecycle events out to the three status sub-handlers.
type Machine struct {
	speech    *eventHandler
	utterance *eventHandler
	spinner   *eventHandler
	logger    *slog.Logger
}

// New creates a machine whose sub-handlers report through fn.
func New(fn HandlerFunc, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "status_machine")
	return &Machine{
		speech: newEventHandler("speech", EventSpeak,
			map[string]any{"speech": ""}, fn, speechTimeout, logger),
		utterance: newEventHandler("utterance", EventUtterance,
			map[string]any{"utterance": ""}, fn, utteranceTimeout, logger),
		spinner: newEventHandler("spinner", EventUtteranceEnd,
			map[string]any{}, fn, spinnerDefaultTimeout, logger),
		logger: logger,
	}
}

// Start launches the three workers. They stop when ctx is done.
func (m *Machine) Start(ctx context.Context) {
	m.speech.start(ctx)
	m.utterance.start(ctx)
	m.spinner.start(ctx)
}

// ProcessEvent translates one bus event into status updates.
//
// Text-bearing events queue the formatted utterance on the speech or
// utterance handler, split into paced pieces, and arm that handler's
// reset. System lifecycle events feed the spinner, downgrading to
// utterance-undetected when the unknown-intent fallback answered or an
// exception is attached, and re-arm the spinner reset with a timeout
// that depends on where in the interaction the event sits.
func (m *Machine) ProcessEvent(event string, data map[string]any) {
	target, key := m.utterance, "utterance"
	if event == EventSpeak {
		target, key = m.speech, "speech"
	}

	if text := ExtractUtterance(data); text != "" && textBearing(event) {
		target.touch()
		pieces := Pieces(FormatUtterance(text))
		if len(pieces) == 0 {
			// Whitespace-only text still clears the display, as the
			// end-of-recording blank does.
			pieces = []Piece{{Text: text}}
		}
		for _, piece := range pieces {
			target.enqueue(event, map[string]any{key: piece.Text}, piece.Persistence)
		}
		target.armReset(0)
	}

	if !IsLifecycleEvent(event) {
		return
	}
	skillID, _ := data["skill_id"].(string)
	if skillID == FallbackUnknownSkill || data["exception"] != nil {
		m.logger.Info("utterance not understood", "event", event, "skill_id", skillID)
		event = EventUtteranceUndetected
	}
	m.spinner.touch()
	m.spinner.enqueue(event, nil, 0)
	m.spinner.armReset(spinnerTimeout(event))
}

// textBearing reports whether an event's utterance payload should be
// displayed. Wakeword events carrying text still fall through to the
// spinner path afterwards.
func textBearing(event string) bool {
	switch event {
	case EventSpeak, EventUtterance, EventWakeword, EventRecordBegin, EventRecordEnd:
		return true
	}
	return false
}

// spinnerTimeout maps a lifecycle event to the quiet period the
// spinner tolerates before fading out. Mid-interaction events get long
// timeouts; terminal events get short ones.
func spinnerTimeout(event string) time.Duration {
	switch event {
	case EventWakeword:
		return 20 * time.Second
	case EventSkillHandlerStart, EventAudioOutputStart:
		return 60 * time.Second
	case EventAudioOutputEnd:
		return 10 * time.Second
	case EventSkillHandlerComplete, EventUtteranceHandled:
		return 8 * time.Second
	case EventUtteranceCancelled, EventUtteranceUndetected, EventIntentFailure:
		return 5 * time.Second
	}
	return 0
}
