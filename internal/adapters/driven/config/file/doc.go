// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the recall home directory.
//
// Adapters:
//   - ConfigStore: TOML configuration with environment overrides
//   - PromptStore: user-editable prompt fragments
package file
