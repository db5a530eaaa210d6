package extract

import (
	"html"
	"regexp"
)

var (
	scriptBlockRe = regexp.MustCompile(`(?i)<script[\s\S]*?</script>`)
	styleBlockRe  = regexp.MustCompile(`(?i)<style[\s\S]*?</style>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	newlineRunRe  = regexp.MustCompile(`\n+`)
)

// Textify derives a visible-text rendering from markup: script and style
// blocks are dropped, every tag becomes a line break, and runs of line
// breaks collapse to one.
func Textify(raw string) string {
	txt := scriptBlockRe.ReplaceAllString(raw, " ")
	txt = styleBlockRe.ReplaceAllString(txt, " ")
	txt = tagRe.ReplaceAllString(txt, "\n")
	txt = newlineRunRe.ReplaceAllString(txt, "\n")
	return html.UnescapeString(txt)
}
