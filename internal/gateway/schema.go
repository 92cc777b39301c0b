package gateway

import "google.golang.org/genai"

// activitiesSchema mirrors content.ActivityGenerationResult so the model
// returns JSON the content package decodes directly.
func activitiesSchema() *genai.Schema {
	localizedText := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"original": {Type: genai.TypeString},
			"english":  {Type: genai.TypeString},
		},
		Required: []string{"original", "english"},
	}
	localizedList := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"original": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"english":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"original", "english"},
	}
	activity := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":            localizedText,
			"topic":            localizedText,
			"objective":        localizedText,
			"materials":        localizedList,
			"instructions":     localizedList,
			"duration":         localizedText,
			"ageRange":         localizedText,
			"parentPrimer":     localizedText,
			"stepImagePrompts": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{
			"title", "topic", "objective", "materials", "instructions",
			"duration", "ageRange", "parentPrimer", "stepImagePrompts",
		},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"activities":    {Type: genai.TypeArray, Items: activity},
			"overallTopics": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"activities", "overallTopics"},
	}
}
