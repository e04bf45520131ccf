package openrouter

// Flashcard is a single generated front/back pair.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// ChatResponse is the validated payload extracted from a completion.
type ChatResponse struct {
	Answer     []Flashcard `json:"answer"`
	Confidence float64     `json:"confidence"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type apiRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	ModelParameters
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// apiResponse is the outer completion envelope. Extra fields are tolerated.
type apiResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}
