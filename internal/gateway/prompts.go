package gateway

import (
	"fmt"
	"strings"
)

func activitiesPrompt(focus string) string {
	var b strings.Builder
	b.WriteString("You are a home-learning coach for parents. Read the attached curriculum document ")
	b.WriteString("and design 3 to 5 hands-on activities a parent can run at home with everyday materials.\n")
	if strings.TrimSpace(focus) != "" {
		fmt.Fprintf(&b, "Emphasize this focus chosen by the parent: %s.\n", strings.TrimSpace(focus))
	}
	b.WriteString("For every text field provide both the document's language ('original') and English ('english'); ")
	b.WriteString("if the document is already in English, repeat the text in both fields.\n")
	b.WriteString("Give step-by-step instructions a parent can follow, and for each instruction step ")
	b.WriteString("write one matching image prompt describing a simple, warm illustration of that step ")
	b.WriteString("(same count and order as the instructions).\n")
	b.WriteString("Also list the overall topics the document covers.")
	return b.String()
}

func studyPrompt(topics []string) string {
	return fmt.Sprintf(
		"A parent is about to guide home activities on these topics: %s. "+
			"Using web search, write 5-7 short bullet points (one per line) that give the parent "+
			"just enough background to feel confident, and prefer sources with helpful videos or "+
			"podcasts they could watch or listen to first.",
		strings.Join(topics, ", "))
}

func stepImagePrompt(prompt string) string {
	return fmt.Sprintf(
		"Warm, friendly illustration for a family activity guide, simple shapes, soft colors, no text: %s",
		prompt)
}

func alternativePrompt(item, activityContext string) string {
	return fmt.Sprintf(
		"A parent is missing %q for this home activity: %s. "+
			"Suggest one common household substitute in a single short sentence. "+
			"Reply with the suggestion only.",
		item, activityContext)
}
