// internal/gateway/gateway.go
//
// The generation gateway is the app's single external collaborator. Five
// capabilities, each one request/response; no retries here — failures
// propagate to the caller, and the user re-triggers the action manually.

package gateway

import (
	"context"
	"errors"

	"github.com/kindred-labs/hearthside/internal/content"
)

// ErrNoActivities is returned when activity generation yields no usable
// content for the uploaded document.
var ErrNoActivities = errors.New("gateway: no usable activities in response")

// ErrNoAudio is returned when speech synthesis comes back without audio.
var ErrNoAudio = errors.New("gateway: no audio in response")

// ErrMissingAPIKey is returned at construction when no API key is set.
var ErrMissingAPIKey = errors.New("gateway: missing API key (set GEMINI_API_KEY)")

// Gateway wraps the generative service. Implementations must be safe for
// concurrent use; the TUI issues calls from tea.Cmd goroutines.
type Gateway interface {
	// GenerateActivities turns an uploaded curriculum document into a set
	// of guided missions, steered by the free-text focus label.
	GenerateActivities(ctx context.Context, doc content.Document, focus string) (*content.ActivityGenerationResult, error)

	// FetchStudyMaterials builds the parent prep briefing from the overall
	// topics using grounded web search. Best-effort: resources may be empty.
	FetchStudyMaterials(ctx context.Context, topics []string) (*content.StudySession, error)

	// GenerateStepImage renders one step illustration. Callers treat a
	// failure as "no image", never as fatal.
	GenerateStepImage(ctx context.Context, prompt string) (content.StepImage, error)

	// SynthesizeSpeech returns playable WAV bytes for the given text.
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)

	// SuggestAlternative proposes a household substitution for a missing
	// material. Never returns empty text; a blank model response falls back
	// to a generic phrase.
	SuggestAlternative(ctx context.Context, item, activityContext string) (string, error)
}
