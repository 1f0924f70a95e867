// Package secrets redacts credentials and payment data from user input
// before it is forwarded to an external LLM or transcription provider.
//
// Users dictate and paste freely: a transcript may contain an API key read
// off a screen or a card number spoken aloud. Every prompt built by the
// assistant and the extraction pipeline passes through a Scrubber first.
// Findings report rule IDs and offsets, never the matched value.
package secrets
