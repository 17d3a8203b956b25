package image

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultTextLocale is the language used for in-image typography when the
// batch does not specify one.
const DefaultTextLocale = "zh-Hans"

// PromptInput carries everything needed to describe one slide to the model.
type PromptInput struct {
	Style       string
	VisualDesc  string
	Title       string
	ContentText string
	AspectRatio string
	TextLocale  string
}

// ComposePrompt builds the final render prompt for a single slide. Title and
// body are only embedded when non-empty. The output is deterministic.
func ComposePrompt(in PromptInput) string {
	aspect := strings.TrimSpace(in.AspectRatio)
	if aspect == "" {
		aspect = "16:9"
	}

	sections := []string{
		"Prompt: " + strings.TrimSpace(in.Style),
		"### Page description\n" + strings.TrimSpace(in.VisualDesc),
	}

	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.ContentText)
	if title != "" || body != "" {
		lines := []string{"### Text to embed"}
		if title != "" {
			lines = append(lines, "- Title: "+title)
		}
		if body != "" {
			lines = append(lines, "- Body: "+body)
		}
		lines = append(lines, fmt.Sprintf("Render all text directly in the image in %s, blended naturally with the visual elements.", LanguageName(in.TextLocale)))
		sections = append(sections, strings.Join(lines, "\n"))
	}

	sections = append(sections, strings.Join([]string{
		"### Output requirements",
		fmt.Sprintf("- Aspect ratio must be exactly %s.", aspect),
		"- Combine rich imagery with readable text focused on this page.",
		"- No watermark and no unrelated elements.",
	}, "\n"))
	sections = append(sections, "Generate the complete slide image from all of the information above.")

	return strings.Join(sections, "\n\n")
}

// NormalizeLocale canonicalizes a BCP 47 tag, returning DefaultTextLocale for
// empty or unparseable input.
func NormalizeLocale(locale string) string {
	locale = strings.TrimSpace(strings.ReplaceAll(locale, "_", "-"))
	if locale == "" {
		return DefaultTextLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultTextLocale
	}
	return tag.String()
}

// LanguageName returns the English display name for a locale, e.g.
// "Simplified Chinese" for zh-Hans.
func LanguageName(locale string) string {
	tag := language.Make(NormalizeLocale(locale))
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}
