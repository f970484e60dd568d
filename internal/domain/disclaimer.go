package domain

const (
	// Disclaimer closes every answer.
	Disclaimer = "I am an AI assistant and not a medical professional. This information is for educational purposes only. Please consult with a qualified healthcare provider for any medical advice, diagnosis, or treatment."

	// DisclaimerSeparator sits between the answer body and Disclaimer.
	DisclaimerSeparator = "\n\n---\n\n"

	// NotFoundMessage is returned when no document matched the question.
	NotFoundMessage = "I'm sorry, but I couldn't find any information about that topic in the MedlinePlus health encyclopedia. Try rephrasing your question or asking about a related condition."

	// ApologyMessage is returned when a language model call fails.
	ApologyMessage = "I'm sorry, but I encountered an error while processing your request. Please try again in a moment."
)

// WithDisclaimer appends the separator and Disclaimer to body.
func WithDisclaimer(body string) string {
	return body + DisclaimerSeparator + Disclaimer
}
