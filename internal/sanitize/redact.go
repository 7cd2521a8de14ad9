package sanitize

// Redactor replaces secrets in command lines with placeholders.
// It is safe for concurrent use.
type Redactor struct {
	rules []Rule
}

// NewRedactor returns a Redactor using the built-in rules.
func NewRedactor() *Redactor {
	return &Redactor{rules: Rules()}
}

// NewRedactorWithRules returns a Redactor using rules in order.
func NewRedactorWithRules(rules []Rule) *Redactor {
	return &Redactor{rules: rules}
}

// Redact returns s with every secret replaced.
func (r *Redactor) Redact(s string) string {
	out, _ := r.RedactReport(s)
	return out
}

// RedactReport is Redact that also names the rules that fired.
func (r *Redactor) RedactReport(s string) (string, []string) {
	if s == "" {
		return s, nil
	}
	var fired []string
	for _, rule := range r.rules {
		if !rule.Regex.MatchString(s) {
			continue
		}
		s = rule.Regex.ReplaceAllString(s, rule.Replacement)
		fired = append(fired, rule.Name)
	}
	return s, fired
}

// RedactAll redacts each string, returning a new slice.
func (r *Redactor) RedactAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = r.Redact(s)
	}
	return out
}

var defaultRedactor = NewRedactor()

// Redact uses the built-in rules.
func Redact(s string) string {
	return defaultRedactor.Redact(s)
}
