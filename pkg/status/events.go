// Package status implements the state machine behind the persistent
// status bar: three independent sub-handlers (spoken reply, user
// utterance, activity spinner) absorb the noisy stream of assistant
// lifecycle events and emit paced, timed display updates.
package status

// Bus event names the machine reacts to.
const (
	EventWakeword             = "recognizer_loop:wakeword"
	EventRecordBegin          = "recognizer_loop:record_begin"
	EventRecordEnd            = "recognizer_loop:record_end"
	EventUtterance            = "recognizer_loop:utterance"
	EventUtteranceEnd         = "recognizer_loop:utterance_end"
	EventUtteranceHandled     = "ovos.utterance.handled"
	EventUtteranceCancelled   = "ovos.utterance.cancelled"
	EventUtteranceUndetected  = "ovos.utterance.undetected"
	EventAudioOutputStart     = "recognizer_loop:audio_output_start"
	EventAudioOutputEnd       = "recognizer_loop:audio_output_end"
	EventSkillHandlerStart    = "mycroft.skill.handler.start"
	EventSkillHandlerComplete = "mycroft.skill.handler.complete"
	EventIntentFailure        = "complete_intent_failure"
	EventPageGainedFocus      = "page_gained_focus"
	EventSpeak                = "speak"
	EventBlink                = "enclosure.eyes.blink"
)

// FallbackUnknownSkill is the skill id of the unknown-intent fallback.
// A lifecycle event attributed to it means the utterance was not
// understood.
const FallbackUnknownSkill = "skill-ovos-fallback-unknown.openvoiceos"

// IsSystemEvent reports whether the event is one of the assistant's
// known bus events.
func IsSystemEvent(event string) bool {
	switch event {
	case EventWakeword, EventRecordBegin, EventRecordEnd,
		EventUtterance, EventUtteranceEnd,
		EventUtteranceHandled, EventUtteranceCancelled, EventUtteranceUndetected,
		EventAudioOutputStart, EventAudioOutputEnd,
		EventSkillHandlerStart, EventSkillHandlerComplete,
		EventIntentFailure, EventPageGainedFocus,
		EventSpeak, EventBlink:
		return true
	}
	return false
}

// IsLifecycleEvent reports whether the event belongs to the system
// lifecycle stream that drives the activity spinner.
func IsLifecycleEvent(event string) bool {
	switch event {
	case EventWakeword,
		EventSkillHandlerStart, EventSkillHandlerComplete,
		EventUtteranceHandled, EventUtteranceCancelled,
		EventAudioOutputStart, EventAudioOutputEnd,
		EventIntentFailure, EventUtteranceEnd:
		return true
	}
	return false
}
