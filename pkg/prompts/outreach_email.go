package prompts

import (
	"fmt"
	"strings"
)

// ProjectContext is a portfolio project offered to the model as evidence.
type ProjectContext struct {
	Name        string
	Description string
	Skills      []string
	URL         string
	Score       float64
}

// OutreachEmailInput holds everything the model sees when drafting.
type OutreachEmailInput struct {
	SenderName     string
	JobURL         string
	JobDescription string
	Projects       []ProjectContext
}

// maxDescriptionRunes bounds each project description in the prompt.
const maxDescriptionRunes = 400

// BuildOutreachEmailPrompt creates the user prompt for drafting a cold
// outreach email. Projects are listed in the order given, strongest first.
func BuildOutreachEmailPrompt(in OutreachEmailInput) string {
	var prompt strings.Builder

	prompt.WriteString("# Cold Outreach Email\n\n")
	prompt.WriteString("Draft a short cold email from a candidate to the hiring team for the role below.\n\n")

	prompt.WriteString("## Role\n\n")
	if in.JobURL != "" {
		prompt.WriteString(fmt.Sprintf("Posting: %s\n", in.JobURL))
	}
	if jd := strings.TrimSpace(in.JobDescription); jd != "" {
		prompt.WriteString("\n")
		prompt.WriteString(jd)
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")

	prompt.WriteString("## Candidate\n\n")
	if in.SenderName != "" {
		prompt.WriteString(fmt.Sprintf("Name: %s\n\n", in.SenderName))
	}

	if len(in.Projects) == 0 {
		prompt.WriteString("No portfolio projects are available. Keep the email general and do not invent projects.\n\n")
	} else {
		prompt.WriteString("Relevant projects, most relevant first:\n\n")
		for i, p := range in.Projects {
			prompt.WriteString(fmt.Sprintf("### %d. %s\n", i+1, p.Name))
			if p.Description != "" {
				prompt.WriteString(fmt.Sprintf("- **Description**: %s\n", truncate(p.Description, maxDescriptionRunes)))
			}
			if len(p.Skills) > 0 {
				prompt.WriteString(fmt.Sprintf("- **Skills**: %s\n", strings.Join(p.Skills, ", ")))
			}
			if p.URL != "" {
				prompt.WriteString(fmt.Sprintf("- **Link**: %s\n", p.URL))
			}
			if p.Score > 0 {
				prompt.WriteString(fmt.Sprintf("- **Relevance**: %.2f\n", p.Score))
			}
			prompt.WriteString("\n")
		}
	}

	prompt.WriteString("## Guidelines\n\n")
	prompt.WriteString("- Keep the body under 180 words\n")
	prompt.WriteString("- Mention at most two projects and tie each to a requirement of the role\n")
	prompt.WriteString("- Use plain text, no markdown and no placeholders such as [Company]\n")
	prompt.WriteString("- End with a single clear ask for a short call\n\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond in JSON with `subject` and `body` string fields.\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "subject": "Backend engineer with inventory automation experience",
  "body": "Hi team,\n\nI saw your opening for ..."
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// BuildOutreachEmailSystemMessage returns the system message for the LLM.
func BuildOutreachEmailSystemMessage() string {
	return `You are an expert career coach who writes concise, specific cold outreach emails for software job applications.`
}

func truncate(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}
