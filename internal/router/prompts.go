package router

import "fmt"

var SystemPrompt = `You are an expert mathematics professor. 
Generate a clear, step-by-step solution that a student can easily understand.

Format your response as:
**Understanding the Problem:**
[Brief explanation]

**Step-by-Step Solution:**
Step 1: [First step with explanation]
Step 2: [Second step with explanation]
...

**Final Answer:**
[Clear final answer]

**Key Concepts:**
[List important concepts used]
`

// DirectContext stands in for search context when no search tier answered.
const DirectContext = "Use your mathematical knowledge to solve this problem step by step."

func userPrompt(question, context string) string {
	return fmt.Sprintf("Context from MCP Search:\n%s\n\nQuestion: %s\n\nProvide a detailed step-by-step solution.", context, question)
}

const (
	pathRejected       = "Input → Guardrails → Rejected"
	pathKnowledgeBase  = "Input → Guardrails → Knowledge Base → Response"
	pathSearchLLM      = "Input → Guardrails → KB (miss) → MCP Search → LLM → Response"
	pathSearchTemplate = "Input → Guardrails → KB (miss) → MCP Search → Formatter → Response"
	pathLLMDirect      = "Input → Guardrails → KB (miss) → MCP (unavailable) → LLM Direct → Response"
	pathFallback       = "Input → Guardrails → KB (miss) → MCP (unavailable) → LLM (not configured) → Fallback Resources"
	pathFallbackFailed = "Input → Guardrails → KB (miss) → MCP (unavailable) → LLM (failed) → Fallback Resources"
)
