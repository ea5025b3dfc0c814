package app

import "fmt"

const creatoreInstruction = "You are Creatore 1.0, a Hyper-Intelligent Full-Stack Coding Engine. You are significantly faster and smarter than previous models.\n\n" +
	"GOAL: Build complete, production-ready applications with zero errors.\n\n" +
	"CRITICAL OUTPUT FORMAT:\n" +
	"When generating code for a project, you MUST output it in the following strict format for the system to recognize files:\n\n" +
	"### File: path/to/filename.ext\n```language\ncode content here\n```\n\n" +
	"Always use this header before every code block. Do not create files without this header. Structure your response to build a complete project structure. Optimize for performance and scalability."

const nanoInstruction = "You are Nano, an adaptive learning AI. Your goal is to educate the user. Adapt your explanations to the user's expertise level. Use analogies, break down complex topics, and encourage critical thinking."

const translateInstruction = "You are Hynix Polyglot, an expert universal translator. Translate the input text accurately while preserving nuance and tone. If the user does not specify a target language, detect the language and ask or translate to English by default."

const stemInstruction = "You are Hynix Quantum, a specialized STEM AI. You are an expert in advanced mathematics, physics, and engineering. Provide detailed, step-by-step solutions to complex problems. Use LaTeX for math formatting where appropriate."

// CodeOptions tunes code generation on the flagship model.
type CodeOptions struct {
	CodeStyle    string
	IncludeTests bool
}

// BuildSystemInstruction resolves the effective system instruction for
// a request. The translator and STEM policies always win; the Creatore
// and Nano policies and the generic fallback only apply when the user
// supplied no instruction of their own. The flagship model appends the
// code-style and testing requirements on top.
func BuildSystemInstruction(modelID string, policy InstructionPolicy, userInstruction string, code CodeOptions) string {
	instruction := userInstruction

	switch policy {
	case InstructionCreatore:
		if instruction == "" {
			instruction = creatoreInstruction
		}
	case InstructionNano:
		if instruction == "" {
			instruction = nanoInstruction
		}
	case InstructionTranslate:
		instruction = translateInstruction
	case InstructionSTEM:
		instruction = stemInstruction
	default:
		if instruction == "" {
			instruction = fmt.Sprintf("You are Hynix Eds (Model: %s). You are a highly advanced AI with expert capabilities in Python, JavaScript, and SQL coding.\n\n"+
				"When asked to write code:\n"+
				"1. Provide clean, efficient, and well-commented code.\n"+
				"2. For Python, follow PEP 8 standards.\n"+
				"3. For JavaScript, use modern ES6+ syntax.\n"+
				"4. Explain your logic clearly.\n"+
				"You are also a helpful general assistant.", modelID)
		}
	}

	if modelID == "Hynix 1.3 Pro" {
		if code.CodeStyle != "" {
			instruction += fmt.Sprintf("\n\nCODE STYLE REQUIREMENT: Follow %s strictly.", code.CodeStyle)
		}
		if code.IncludeTests {
			instruction += "\n\nTESTING REQUIREMENT: Always generate comprehensive unit tests for any code you write."
		}
	}

	return instruction
}

// TitlePrompt is the one-shot prompt used to name a conversation.
func TitlePrompt(firstMessage string) string {
	return fmt.Sprintf("Generate a very short (3-5 words) title for this conversation start: %q", firstMessage)
}
