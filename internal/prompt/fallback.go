package prompt

// defaultFallbackLead is used when no failure reason is supplied.
const defaultFallbackLead = "I'm experiencing technical difficulties but I'm here to help."

// Fallback returns the deterministic substitute reply used when the
// gateway call fails. The reason, when supplied, is embedded in the
// summary section; all five section markers are always present so the
// response shape matches a successful completion.
func Fallback(reason string) string {
	if reason == "" {
		reason = defaultFallbackLead
	}

	return MarkerSummary + "\n" + reason + `

` + MarkerExplanation + `
I'm Gromo Coach, designed to provide comprehensive financial guidance including insurance, investments, tax planning, and banking solutions. Currently experiencing some technical issues, but I'll do my best to help you.

` + MarkerExamples + `
- Life insurance planning for young professionals (₹50 lakh coverage for ₹500/month)
- SIP investments for wealth building (₹5000/month can grow to ₹50 lakh in 15 years)
- Tax-saving strategies under Section 80C (save up to ₹46,800 in taxes)

` + MarkerSteps + `
1. Please try your question again in a moment
2. Be specific about your financial situation (age, income, goals)
3. Mention your investment timeline for better advice
4. Consider speaking with a financial advisor for complex queries

` + MarkerQuestions + `
- What's the best investment strategy for someone my age?
- How much life insurance coverage do I actually need?
- Which tax-saving options give the best returns?
- How should I create and maintain an emergency fund?`
}
