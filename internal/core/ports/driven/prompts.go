package driven

// PromptStore provides access to prompt fragments.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names.
const (
	// PromptCitationInstructions is placed above retrieved context and tells
	// the model how to cite sources. It has no format placeholders.
	PromptCitationInstructions = "citation_instructions"
)

// DefaultCitationInstructions is served when no citation_instructions
// prompt has been customised.
const DefaultCitationInstructions = `Use the numbered sources below when they are relevant to the user's question.
Cite them inline by number in square brackets, for example [1] or [2][3].
Only cite sources that appear in this list. If the sources do not contain the answer,
say so and answer from general knowledge without citing anything.`
