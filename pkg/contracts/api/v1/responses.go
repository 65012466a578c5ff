package api

// StatusResponse is the liveness answer of GET /status.
type StatusResponse struct {
	Status string `json:"status"`
}

// WelcomeResponse is served at the root path.
type WelcomeResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// PrimitiveInfo describes one catalog entry.
type PrimitiveInfo struct {
	Name        string   `json:"name"`
	Kind        string   `json:"type"`
	InputTypes  []string `json:"input_types"`
	OutputType  string   `json:"return_type,omitempty"`
	Description string   `json:"description"`
}

// FeatureDefinition describes one planned output feature.
type FeatureDefinition struct {
	Name      string   `json:"name"`
	Entity    string   `json:"entity"`
	Kind      string   `json:"kind"`
	Depth     int      `json:"depth"`
	Primitive string   `json:"primitive,omitempty"`
	Chain     []string `json:"chain"`
	Source    string   `json:"source"`
	Type      string   `json:"type"`
}

// DefinitionsResponse lists the features a request would produce, in
// output order.
type DefinitionsResponse struct {
	Count    int                 `json:"count"`
	Features []FeatureDefinition `json:"features"`
}
