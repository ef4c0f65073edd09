package api

type ChatRequest struct {
	// provider name as registered, e.g. `Chutes`
	Provider string `json:"provider" binding:"required"`

	// upstream model id, `<username>/<model>` selects a dedicated chute
	Model string `json:"model" binding:"required"`

	// message array is required, dive in and deep validate
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`

	MaxTokens   int     `json:"max_tokens,omitempty" binding:"omitempty,min=1"`
	Temperature float64 `json:"temperature,omitempty" binding:"omitempty,min=0,max=2"`
}

type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

type APICheckRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}
