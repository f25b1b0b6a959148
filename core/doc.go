// Package turntaking implements the voice-first conversational
// turn-taking engine: energy-based voice activity detection over live
// microphone loudness, a recognition session bridging a streaming
// transcription backend with bounded startup retry, and a single-writer
// orchestrator that decides when recognized text is handed to the
// assistant, when the assistant's reply is spoken, and how the loop
// recovers from device and backend failures.
package turntaking
