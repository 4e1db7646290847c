package ports

// Prompter asks a person to grant a permission.
type Prompter interface {
	// IsInteractive returns true if a person can answer prompts.
	IsInteractive() bool

	// PromptForPermission asks whether name may be granted. always reports
	// that the answer should outlive the session.
	PromptForPermission(name, description string) (granted bool, always bool, err error)
}
