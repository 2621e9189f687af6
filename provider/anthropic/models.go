package anthropic

// Model identifies an Anthropic model.
type Model string

// Available Claude models.
const (
	ClaudeOpus45   Model = "claude-opus-4-5"
	ClaudeSonnet45 Model = "claude-sonnet-4-5"
	ClaudeHaiku45  Model = "claude-haiku-4-5"
)

// DefaultModel is used when neither the client nor the request names one.
const DefaultModel = ClaudeSonnet45

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}
