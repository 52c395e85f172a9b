package driven

// PromptStore provides access to generation prompt templates.
// Implementations may load prompts from files or embed them in the binary.
// Prompt names are the domain.Prompt* constants.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the
	// built-in default or an error when there is none.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}
