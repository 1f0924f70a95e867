// Package extraction validates and enhances task candidates produced by an
// LLM from a user's voice or text input.
//
// The package is pure: it performs no I/O and holds no mutable state after
// construction, so a single Validator and Enhancer can be shared across
// goroutines.
//
// # Architecture
//
// The main components are:
//   - Pattern tables: ordered keyword and regex tables (patterns.go)
//   - Enhancer: fills absent fields (duration, reminder, location,
//     recurrence) by inspecting the original transcript and page context
//   - Validator: runs a fixed sequence of checks, accumulating issues,
//     suggestions and confidence adjustments into a single Report
//
// # Usage
//
// Enhance first, then validate:
//
//	enhancer := extraction.NewEnhancer()
//	validator := extraction.NewValidator(extraction.WithLogger(logger))
//
//	task = enhancer.Enhance(task, transcript, pageCtx)
//	report, task := validator.Validate(task, transcript)
//	if !report.IsValid {
//	    // surface report.Issues to the user
//	}
//
// Enhancement never overwrites a populated field and each inference reads
// only the transcript and page context, so Enhance is idempotent.
//
// Validation never fails with an error: malformed input becomes an issue
// with SeverityError and IsValid is false.
package extraction
