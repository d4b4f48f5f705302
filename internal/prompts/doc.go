// Package prompts contains the system prompt templates sent to the model.
//
// Prompt text is Go code rather than config files because it is program
// logic: templates use fmt.Sprintf interpolation, benefit from compile-time
// embedding, and can be validated by tests. User-facing settings live in
// config.yaml; this package holds the instructions themselves.
package prompts
