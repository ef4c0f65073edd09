package api

// ModelInfo describes a single invocable model exposed by a provider.
type ModelInfo struct {
	Name            string `json:"name"`
	Label           string `json:"label"`
	Provider        string `json:"provider"`
	MaxTokenAllowed int    `json:"maxTokenAllowed"`
}

// ProviderSettings are the persisted, user-editable settings for a provider.
type ProviderSettings struct {
	Enabled *bool  `json:"enabled,omitempty" mapstructure:"enabled"`
	BaseURL string `json:"baseUrl,omitempty" mapstructure:"base_url"`
}

type ModelFilter struct {
	Provider string
	Name     string
}

// ProviderSummary is the public view of a registered provider.
type ProviderSummary struct {
	Name         string `json:"name"`
	APIKeyLink   string `json:"api_key_link,omitempty"`
	StaticModels int    `json:"static_models"`
}
