package openai

// Model identifies an OpenAI model.
type Model string

// Available models.
const (
	GPT5     Model = "gpt-5"
	GPT5Mini Model = "gpt-5-mini"
	GPT41    Model = "gpt-4.1"
	GPT4o    Model = "gpt-4o"
)

// DefaultModel is used when neither the client nor the request names one.
const DefaultModel = GPT5Mini

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}
