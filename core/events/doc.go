// Package events defines the closed set of typed events that the
// turn-taking engine consumes. Collaborator callbacks (voice activity,
// transcription, completion, playback) are translated into these values
// and delivered through a single serialized queue so that conversation
// state transitions never interleave.
package events
