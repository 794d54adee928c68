package apimodels

type SolveRequest struct {
	// Question is the natural language math question to route
	Question string `json:"question"`
}

type ConceptRequest struct {
	// Concept is the mathematical term to explain
	Concept string `json:"concept" validate:"required,max=200"`
}

type FeedbackRequest struct {
	Question string `json:"question" validate:"required"`
	Solution string `json:"solution" validate:"required"`

	// Rating from 1 (useless) to 5 (excellent)
	Rating int `json:"rating" validate:"required,min=1,max=5"`

	Comments string `json:"comments,omitempty" validate:"max=2000"`
}
