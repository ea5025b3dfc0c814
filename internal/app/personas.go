package app

// DefaultPersonas are the built-in assistant personalities. The
// selected persona's instruction becomes the settings system
// instruction unless the user wrote their own.
var DefaultPersonas = []Persona{
	{ID: "default", Name: "Standard Assistant", Description: "Helpful and precise", SystemInstruction: ""},
	{ID: "coder", Name: "Senior Engineer", Description: "Expert in Python, React, and System Design",
		SystemInstruction: "You are a Senior Staff Software Engineer. Provide efficient, scalable, and secure code. Explain trade-offs."},
	{ID: "writer", Name: "Creative Writer", Description: "Storytelling and copywriting expert",
		SystemInstruction: "You are an award-winning creative writer. Focus on tone, style, and vivid imagery. Avoid cliches."},
	{ID: "analyst", Name: "Data Analyst", Description: "Insights from structured data",
		SystemInstruction: "You are a data analyst. Output answers in Markdown tables where possible. Be concise and focus on insights."},
}

// PersonaByID resolves a persona, falling back to the default one for
// unknown ids.
func PersonaByID(id string) Persona {
	for _, p := range DefaultPersonas {
		if p.ID == id {
			return p
		}
	}
	return DefaultPersonas[0]
}

// DefaultPrompts are the built-in prompt templates shown in the
// template picker.
var DefaultPrompts = []PromptTemplate{
	{ID: "1", Title: "Refactor Code", Category: "Coding",
		Content: "Refactor the following code to improve performance and readability:\n\n[PASTE CODE HERE]"},
	{ID: "2", Title: "Explain Logic", Category: "Coding",
		Content: "Explain the logic of this code snippet step-by-step:\n\n[PASTE CODE HERE]"},
	{ID: "3", Title: "Blog Post", Category: "Writing",
		Content: "Write a comprehensive blog post about [TOPIC]. Include a catchy title, introduction, 3 key points, and a conclusion."},
	{ID: "4", Title: "SWOT Analysis", Category: "Business",
		Content: "Perform a SWOT analysis for [COMPANY/PRODUCT]."},
	{ID: "5", Title: "Email Drafter", Category: "Writing",
		Content: "Draft a professional email to [RECIPIENT] regarding [SUBJECT]. Tone: [TONE]."},
}
