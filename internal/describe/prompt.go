package describe

import (
	"fmt"
	"strings"
)

type promptInput struct {
	hero    string
	patch   string
	result  string
	minutes int
	score   string
	kda     string
	items   string
	matchID int64
}

// thumbnailPrompt writes a single paragraph for an image-generation tool.
func thumbnailPrompt(in promptInput) string {
	patchPart := "Current Patch"
	if in.patch != "" {
		patchPart = "Patch " + in.patch
	}

	sentences := []string{
		"Create a YouTube thumbnail for a Dota 2 match video.",
		fmt.Sprintf("Hero: %s.", in.hero),
		fmt.Sprintf("Match result: %s.", in.result),
		fmt.Sprintf("Match length: %d minutes.", in.minutes),
		fmt.Sprintf("Score: %s.", in.score),
	}
	if in.kda != "" {
		sentences = append(sentences, fmt.Sprintf("KDA: %s.", in.kda))
	}
	if in.items != "" {
		sentences = append(sentences, fmt.Sprintf("Key items: %s.", in.items))
	}
	sentences = append(sentences,
		patchPart+".",
		fmt.Sprintf("Match ID: %d.", in.matchID),
		"Style: high-contrast esports thumbnail, sharp hero portrait, dynamic action background, bold readable text, clean composition, 16:9, 1280x720.",
		fmt.Sprintf("Text overlay (few words): '%s BUILD' and '%s' and '%s'.",
			strings.ToUpper(in.hero), strings.ToUpper(in.result), strings.ToUpper(patchPart)),
		"Avoid: small text, clutter, watermarks, blurry faces.",
	)
	return strings.Join(sentences, " ")
}
