package prompt

import "strings"

// Recognised placeholder tokens.
const (
	TokenCompanyName    = "{COMPANY_NAME}"
	TokenJobTitle       = "{JOB_TITLE}"
	TokenJobDescription = "{JOB_DESCRIPTION}"
)

// DefaultTemplate is used when the user has neither an inline nor a saved default template.
const DefaultTemplate = "My name is Max, I have over 9 years of experience as software QS/Tester. " +
	"Generate a customized cover letter for {COMPANY_NAME} based on its job description: " +
	"{JOB_DESCRIPTION} for the job title: {JOB_TITLE}."

// PreviewDescriptionLen is how many runes of the job description a preview keeps.
const PreviewDescriptionLen = 200

const ellipsis = "..."

// Fields are the record values a template can reference.
type Fields struct {
	Name           string
	JobTitle       string
	JobDescription string
}

// Populate replaces every occurrence of the recognised tokens with the field values.
// Unknown or malformed markers are left verbatim. Substituted values are not re-scanned.
func Populate(template string, f Fields) string {
	if template == "" {
		return ""
	}
	r := strings.NewReplacer(
		TokenCompanyName, f.Name,
		TokenJobTitle, f.JobTitle,
		TokenJobDescription, f.JobDescription,
	)
	return r.Replace(template)
}

// Preview populates the template for display, shortening the description.
// The prompt sent for generation always goes through Populate instead.
func Preview(template string, f Fields) string {
	f.JobDescription = Truncate(f.JobDescription, PreviewDescriptionLen)
	return Populate(template, f)
}

// Truncate cuts s to n runes and appends "..." when anything was dropped.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + ellipsis
}

// HasTokens reports whether template references any recognised token.
func HasTokens(template string) bool {
	return strings.Contains(template, TokenCompanyName) ||
		strings.Contains(template, TokenJobTitle) ||
		strings.Contains(template, TokenJobDescription)
}
