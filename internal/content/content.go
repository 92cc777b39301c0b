// internal/content/content.go
//
// Shared data shapes for bilingual activity content, study sessions, and
// uploaded curriculum documents. Everything here is plain data; behavior
// lives in the flow and mission packages.

package content

import "strings"

// Lang selects which side of a localized pair is displayed.
type Lang string

const (
	LangOriginal Lang = "original"
	LangEnglish  Lang = "english"
)

// LocalizedText pairs a value in the curriculum's language with its English
// rendering. Both fields are always populated together.
type LocalizedText struct {
	Original string `json:"original"`
	English  string `json:"english"`
}

// In returns the text for the given language, falling back to the other
// side when one is blank.
func (t LocalizedText) In(lang Lang) string {
	if lang == LangEnglish {
		if strings.TrimSpace(t.English) != "" {
			return t.English
		}
		return t.Original
	}
	if strings.TrimSpace(t.Original) != "" {
		return t.Original
	}
	return t.English
}

// LocalizedList is the LocalizedText pairing for ordered string sequences.
type LocalizedList struct {
	Original []string `json:"original"`
	English  []string `json:"english"`
}

// In returns the list for the given language, falling back to the other
// side when one is empty.
func (l LocalizedList) In(lang Lang) []string {
	if lang == LangEnglish {
		if len(l.English) > 0 {
			return l.English
		}
		return l.Original
	}
	if len(l.Original) > 0 {
		return l.Original
	}
	return l.English
}

// Activity is one guided home learning mission generated from the uploaded
// curriculum. StepImagePrompts carries one illustration prompt per
// instruction step; the two lists are produced together by the gateway but
// are not guaranteed equal length, so consumers clamp (see ImagePlan).
type Activity struct {
	Title            LocalizedText `json:"title"`
	Topic            LocalizedText `json:"topic"`
	Objective        LocalizedText `json:"objective"`
	Materials        LocalizedList `json:"materials"`
	Instructions     LocalizedList `json:"instructions"`
	Duration         LocalizedText `json:"duration"`
	AgeRange         LocalizedText `json:"ageRange"`
	ParentPrimer     LocalizedText `json:"parentPrimer"`
	StepImagePrompts []string      `json:"stepImagePrompts"`
}

// StepCount returns the number of instruction steps.
func (a Activity) StepCount() int {
	return len(a.Instructions.Original)
}

// ImagePlan returns the illustration prompts clamped to the instruction
// count. Extra prompts are ignored; missing prompts leave trailing steps
// without an image.
func (a Activity) ImagePlan() []string {
	n := a.StepCount()
	if len(a.StepImagePrompts) < n {
		n = len(a.StepImagePrompts)
	}
	return a.StepImagePrompts[:n]
}

// ActivityGenerationResult is produced once per document upload and is
// immutable thereafter; a new upload replaces it wholesale.
type ActivityGenerationResult struct {
	Activities    []Activity `json:"activities"`
	OverallTopics []string   `json:"overallTopics"`
}

// ResourceKind classifies a study resource.
type ResourceKind string

const (
	ResourceVideo ResourceKind = "video"
	ResourceAudio ResourceKind = "audio"
)

// StudyResource points at external prep material for the parent.
type StudyResource struct {
	Title string       `json:"title"`
	URL   string       `json:"url"`
	Kind  ResourceKind `json:"type"`
}

// StudySession is the parent prep briefing, created lazily once per app
// session from the overall topics and cached by the flow controller.
type StudySession struct {
	Summary   []string        `json:"summary"`
	Resources []StudyResource `json:"materials"`
}

// Document is an uploaded curriculum file.
type Document struct {
	Name string
	MIME string
	Data []byte
}

// StepImage is one generated step illustration. The zero value is the
// "no image available" placeholder used when a generation call fails.
type StepImage struct {
	MIME string
	Data []byte
}

// Empty reports whether the image is the placeholder.
func (i StepImage) Empty() bool {
	return len(i.Data) == 0
}
