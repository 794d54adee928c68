package apimodels

// Source values reported in RoutingResult.Source.
const (
	SourceGuardrail     = "guardrail"
	SourceKnowledgeBase = "knowledge_base"
	SourceWebSearch     = "mcp_web_search"
	SourceLLMDirect     = "llm_direct"
	SourceFallback      = "fallback"
)

type RoutingResult struct {
	// False only when the input guardrail rejected the query
	Success bool `json:"success"`

	// Which tier produced the answer
	Source string `json:"source"`

	// Formatted step-by-step answer
	Solution string `json:"solution,omitempty"`

	// Guardrail rejection reason
	Message string `json:"message,omitempty"`

	// Knowledge base similarity, rounded to two decimals
	Confidence *float64 `json:"confidence,omitempty"`

	// Web search documents the answer was built from
	References []SearchDocument `json:"references,omitempty"`

	// Human-readable trace of the tiers visited
	RoutingPath string `json:"routing_path"`

	// Advisory output guardrail verdict for generated answers
	OutputCheck *ValidationOutcome `json:"output_check,omitempty"`
}

type SearchDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type ValidationOutcome struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

type ConceptResponse struct {
	Concept string           `json:"concept"`
	Found   bool             `json:"found"`
	Results []SearchDocument `json:"results"`
	Error   string           `json:"error,omitempty"`
}

type FeedbackResponse struct {
	Message       string `json:"message"`
	TotalFeedback int    `json:"total_feedback"`
}

type HealthResponse struct {
	Status            string `json:"status"`
	Agent             string `json:"agent"`
	KnowledgeBaseSize int    `json:"knowledge_base_size"`
	LLMConfigured     bool   `json:"llm_configured"`
	SearchConfigured  bool   `json:"search_configured"`

	// Provider-named flags kept for existing clients.
	GroqConfigured   bool `json:"groq_configured"`
	TavilyConfigured bool `json:"tavily_configured"`
}

type ServiceInfo struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
