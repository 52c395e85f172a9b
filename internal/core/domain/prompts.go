package domain

// Well-known prompt names. File-backed prompt stores use them as file names.
const (
	// PromptAnswerSystem is the system message for answering from context.
	PromptAnswerSystem = "answer_system"

	// PromptVisionAddendum is appended to the system message when an image
	// is sent to a vision model.
	PromptVisionAddendum = "vision_addendum"

	// PromptAnswerUser frames the context and the question.
	// Expects two %s placeholders: context, then question.
	PromptAnswerUser = "answer_user"

	// PromptVisionInstruction closes the user message when an image is attached.
	PromptVisionInstruction = "vision_instruction"

	// PromptTextInstruction closes the user message for text-only requests.
	PromptTextInstruction = "text_instruction"

	// PromptImageUnsupported closes the user message when an image had to be dropped.
	PromptImageUnsupported = "image_unsupported"
)

var defaultPrompts = map[string]string{
	PromptAnswerSystem: `You are an expert industrial safety consultant specializing in European regulations and standards. Your expertise covers:

• Machinery Directive (2006/42/EC)
• Low Voltage Directive (2014/35/EU)
• EMC Directive (2014/30/EU)
• Harmonized safety standards (EN ISO 13849, EN 62061, etc.)
• Risk assessment methodologies
• CE marking requirements

INSTRUCTIONS:
1. Base your answers STRICTLY on the provided context sources
2. Quote specific sections, clauses, or requirements when possible
3. If information is incomplete, state what's missing clearly
4. Provide practical, actionable guidance
5. Reference the specific source document and section
6. If the context doesn't contain the answer, say so explicitly

ANSWER FORMAT:
- Start with a direct answer to the question
- Support with specific citations from the context
- Explain any technical requirements clearly
- Mention relevant standards or directive sections`,

	PromptVisionAddendum: "Additionally, analyze any provided images focusing on safety compliance, " +
		"standard requirements, and regulatory aspects.",

	PromptAnswerUser: "CONTEXT SOURCES:\n%s\n\n===================\n\nQUESTION: %s",

	PromptVisionInstruction: "Please analyze the provided image and answer the question based on both the " +
		"image content and the context sources above. Be specific about which source supports your answer.",

	PromptTextInstruction: "Please provide a detailed, accurate answer based on the context sources above. " +
		"Reference specific sources and sections.",

	PromptImageUnsupported: "Note: An image was provided but cannot be processed by the current model. " +
		"Please answer based solely on the context sources above.",
}

// DefaultPrompt returns the built-in text of a prompt, if any.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// PromptNames returns every built-in prompt name.
func PromptNames() []string {
	return []string{
		PromptAnswerSystem,
		PromptVisionAddendum,
		PromptAnswerUser,
		PromptVisionInstruction,
		PromptTextInstruction,
		PromptImageUnsupported,
	}
}
