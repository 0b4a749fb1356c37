package diagrams

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultDirective is prepended to markup that carries no init directive.
const DefaultDirective = `%%{init: {'look': 'handDrawn', 'theme': 'dark'}}%%`

const handDrawnLook = `'look': 'handDrawn'`

// initDirective matches the opening of a Mermaid init (or initialize)
// directive up to and including the brace of its configuration object.
var initDirective = regexp.MustCompile(`%%\{\s*init(?:ialize)?\s*:\s*\{`)

// EnsureDirective applies the sketch-style dark theme to a diagram. Markup
// without an init directive gets DefaultDirective prepended; a directive
// without the hand-drawn look gets it injected. Applying it twice yields the
// same text as applying it once.
func EnsureDirective(markup string) string {
	loc := initDirective.FindStringIndex(markup)
	if loc == nil {
		return DefaultDirective + "\n" + markup
	}
	if strings.Contains(markup, "handDrawn") {
		return markup
	}
	insertAt := loc[1]
	rest := strings.TrimLeft(markup[insertAt:], " \t")
	injected := handDrawnLook + ", "
	if strings.HasPrefix(rest, "}") {
		injected = handDrawnLook
	}
	return markup[:insertAt] + injected + markup[insertAt:]
}

// ChainDiagram synthesizes a left-to-right flowchart for a layer that has
// no markup of its own: every node id becomes a box and consecutive ids are
// linked in declaration order.
func ChainDiagram(nodeIDs []string) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	prev := ""
	for _, raw := range nodeIDs {
		id := nodeRef(raw)
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, escapeMermaid(raw)))
		if prev != "" {
			b.WriteString(fmt.Sprintf("    %s --> %s\n", prev, id))
		}
		prev = id
	}

	return b.String()
}

// safeID matches ids Mermaid accepts verbatim.
var safeID = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// nodeRef keeps safe ids verbatim so the rendered element ids still carry
// them; anything else is sanitized.
func nodeRef(id string) string {
	if safeID.MatchString(id) {
		return id
	}
	return sanitizeID(id)
}

// sanitizeID converts a string into a safe mermaid node ID.
func sanitizeID(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		".", "_",
		"-", "_",
		" ", "_",
		"(", "_",
		")", "_",
		"[", "_",
		"]", "_",
		"{", "_",
		"}", "_",
		":", "_",
	)
	return replacer.Replace(s)
}

// escapeMermaid escapes characters that have special meaning in mermaid labels.
func escapeMermaid(s string) string {
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "(", "#lpar;")
	s = strings.ReplaceAll(s, ")", "#rpar;")
	s = strings.ReplaceAll(s, "[", "#lsqb;")
	s = strings.ReplaceAll(s, "]", "#rsqb;")
	s = strings.ReplaceAll(s, "{", "#lbrace;")
	s = strings.ReplaceAll(s, "}", "#rbrace;")
	s = strings.ReplaceAll(s, "<", "#lt;")
	s = strings.ReplaceAll(s, ">", "#gt;")
	return s
}

// unescapeMermaid reverses escapeMermaid for display purposes.
func unescapeMermaid(s string) string {
	r := strings.NewReplacer(
		"#quot;", "\"",
		"#lpar;", "(",
		"#rpar;", ")",
		"#lsqb;", "[",
		"#rsqb;", "]",
		"#lbrace;", "{",
		"#rbrace;", "}",
		"#lt;", "<",
		"#gt;", ">",
		"<br/>", " ",
		"<br>", " ",
	)
	return r.Replace(s)
}
