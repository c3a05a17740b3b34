package imagechat

import "time"

// GenerationRecord is the normalized, locally identified form of one produced
// or edited image.
type GenerationRecord struct {
	// ID is unique per record; providers return no durable identifier.
	ID string `json:"id"`

	// EncodedData is the base64 image payload.
	EncodedData string `json:"encoded_data,omitempty"`

	// URL is set instead of EncodedData when the provider returns a link.
	URL string `json:"url,omitempty"`

	// RevisedPrompt is the prompt after any provider-side rewriting.
	RevisedPrompt string `json:"revised_prompt,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// GenerationResult is returned by Generator.Generate and Generator.Edit.
type GenerationResult struct {
	Records []GenerationRecord `json:"records"`

	// Parameters are the merged values that were sent to the provider.
	Parameters ParameterSet `json:"parameters"`

	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token accounting reported by a provider, when available.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Outcome is the result of a generation attempt: exactly one of Result and
// Err is set.
type Outcome struct {
	Result *GenerationResult
	Err    error
}

// Succeeded reports whether the attempt produced a result.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Result != nil
}

// Unwrap converts the outcome back into Go's (value, error) form.
func (o Outcome) Unwrap() (*GenerationResult, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Result, nil
}

func succeeded(r *GenerationResult) Outcome { return Outcome{Result: r} }
func failed(err error) Outcome             { return Outcome{Err: err} }
