package engine

import (
	"regexp"

	"github.com/replyforge/replyforge/models"
)

var templateVarRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z][a-zA-Z0-9_]*)\s*\}\}`)

// Substitutes the recognized template variables into a response template.
// Unknown placeholders pass through literally, so typos stay visible in the
// rendered output.
func RenderTemplate(template string, rule *models.Rule, evt *CommentEvent) string {
	return templateVarRegex.ReplaceAllStringFunc(template, func(tok string) string {
		name := templateVarRegex.FindStringSubmatch(tok)[1]
		switch name {
		case "username":
			return evt.Author.Name
		case "videoTitle":
			return evt.VideoTitle
		case "customLink":
			return rule.CustomLink
		default:
			return tok
		}
	})
}
