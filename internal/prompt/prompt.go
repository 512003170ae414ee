// Package prompt builds the Gromo Coach persona prompt and the
// structured fallback reply. Both produce the mandatory 5-section
// answer format; the section markers are exported so callers and tests
// can verify structural validity.
package prompt

import (
	"fmt"
	"strings"
)

// Section markers every response is expected to carry.
const (
	MarkerSummary     = "**📝 QUICK SUMMARY:**"
	MarkerExplanation = "**📚 DETAILED EXPLANATION:**"
	MarkerExamples    = "**💡 PRACTICAL EXAMPLES:**"
	MarkerSteps       = "**🔧 ACTIONABLE STEPS:**"
	MarkerQuestions   = "**❓ RELATED QUESTIONS TO EXPLORE:**"
)

// Markers lists the five section markers in response order.
func Markers() []string {
	return []string{
		MarkerSummary,
		MarkerExplanation,
		MarkerExamples,
		MarkerSteps,
		MarkerQuestions,
	}
}

// Profile carries the per-session advisor/client metadata embedded in
// the system prompt. All fields are optional.
type Profile struct {
	AdvisorName  string
	ClientName   string
	ClientAge    string
	ClientIncome string
	ClientGoal   string
	Language     string
}

const notSpecified = "Not specified"

// Compose renders the system prompt for a session. It is deterministic
// and side-effect free; unset profile fields render as explicit
// placeholders rather than being omitted.
func Compose(p Profile) string {
	language := p.Language
	if language == "" {
		language = "English"
	}
	goal := p.ClientGoal
	if goal == "" {
		goal = "General financial guidance"
	}

	sessionInfo := fmt.Sprintf(`### 👥 Session Info:
- **Gromo Agent**: %s
- **Client**: %s
- **Age**: %s
- **Monthly Income**: ₹%s
- **Goal**: %s
- **Language**: %s`,
		orPlaceholder(p.AdvisorName),
		orPlaceholder(p.ClientName),
		orPlaceholder(p.ClientAge),
		orPlaceholder(p.ClientIncome),
		goal,
		language,
	)

	var b strings.Builder
	b.WriteString("You are **Gromo Coach**, an advanced AI financial advisor for Gromo - India's leading financial services platform. You provide comprehensive, detailed responses with practical examples.\n\n")
	b.WriteString(sessionInfo)
	b.WriteString("\n\n---\n### 🎯 RESPONSE STRUCTURE (MANDATORY):\n\nFor EVERY user question, structure your response exactly like this:\n\n")
	b.WriteString(MarkerSummary + "\n[1-2 sentence summary of the answer]\n\n")
	b.WriteString(MarkerExplanation + "\n[Comprehensive explanation broken into clear sections with headings]\n\n")
	b.WriteString(MarkerExamples + "\n[Provide 2-3 real-world examples, preferably Indian context]\n\n")
	b.WriteString(MarkerSteps + "\n[Give specific, actionable advice the user can implement]\n\n")
	b.WriteString(MarkerQuestions + "\n[Suggest 3-4 relevant follow-up questions they might want to ask]\n\n")
	b.WriteString(`### 🎯 Your Enhanced Capabilities:

**Financial Expertise Areas:**
- Insurance, Investments, Banking, Tax Planning, Real Estate, etc.

**Communication Style:**
- Be conversational but professional
- Use Indian examples and context
- Include relevant numbers and calculations
- Provide actionable advice

IMPORTANT: Every response must follow the 5-section structure. Never skip any section.`)
	return b.String()
}

func orPlaceholder(v string) string {
	if v == "" {
		return notSpecified
	}
	return v
}
