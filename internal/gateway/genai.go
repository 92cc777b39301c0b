package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kindred-labs/hearthside/internal/content"
)

// fallbackAlternative is used when the model returns blank substitution
// text.
const fallbackAlternative = "Use any similar household item you have on hand."

// Models names the Gemini models used for each capability.
type Models struct {
	Text  string
	Image string
	TTS   string
}

// GeminiGateway implements Gateway on top of the Gemini API.
type GeminiGateway struct {
	client *genai.Client
	models Models
	voice  string
}

// NewGeminiGateway creates the client. The API key comes from the
// environment-backed config and is required.
func NewGeminiGateway(ctx context.Context, apiKey string, models Models, voice string) (*GeminiGateway, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: create client: %w", err)
	}
	return &GeminiGateway{client: client, models: models, voice: voice}, nil
}

// GenerateActivities asks for structured JSON matching the activity shape
// and decodes it. The document travels as an inline part next to the
// instruction prompt.
func (g *GeminiGateway) GenerateActivities(ctx context.Context, doc content.Document, focus string) (*content.ActivityGenerationResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(activitiesPrompt(focus)),
		genai.NewPartFromBytes(doc.Data, doc.MIME),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.models.Text, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   activitiesSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: generate activities: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrNoActivities
	}
	var result content.ActivityGenerationResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("gateway: decode activities: %w", err)
	}
	if len(result.Activities) == 0 {
		return nil, ErrNoActivities
	}
	return &result, nil
}

// FetchStudyMaterials runs a search-grounded summary request. Summary
// points come from the response lines; resources come from the grounding
// sources the model actually used.
func (g *GeminiGateway) FetchStudyMaterials(ctx context.Context, topics []string) (*content.StudySession, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.models.Text,
		genai.Text(studyPrompt(topics)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		})
	if err != nil {
		return nil, fmt.Errorf("gateway: fetch study materials: %w", err)
	}
	session := &content.StudySession{
		Summary:   bulletLines(resp.Text()),
		Resources: groundedResources(resp),
	}
	return session, nil
}

// GenerateStepImage renders a single illustration with Imagen.
func (g *GeminiGateway) GenerateStepImage(ctx context.Context, prompt string) (content.StepImage, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.models.Image, stepImagePrompt(prompt), &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return content.StepImage{}, fmt.Errorf("gateway: generate step image: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return content.StepImage{}, fmt.Errorf("gateway: empty image response")
	}
	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return content.StepImage{MIME: mime, Data: img.ImageBytes}, nil
}

// SynthesizeSpeech requests narration audio and frames the raw PCM into a
// WAV container so any local player can handle it.
func (g *GeminiGateway) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.models.TTS,
		genai.Text(text),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
				},
			},
		})
	if err != nil {
		return nil, fmt.Errorf("gateway: synthesize speech: %w", err)
	}
	pcm := inlineAudio(resp)
	if len(pcm) == 0 {
		return nil, ErrNoAudio
	}
	return wrapPCM(pcm), nil
}

// SuggestAlternative asks for a one-sentence substitution and never
// returns blank text.
func (g *GeminiGateway) SuggestAlternative(ctx context.Context, item, activityContext string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.models.Text,
		genai.Text(alternativePrompt(item, activityContext)), nil)
	if err != nil {
		return "", fmt.Errorf("gateway: suggest alternative: %w", err)
	}
	suggestion := strings.TrimSpace(resp.Text())
	if suggestion == "" {
		return fallbackAlternative, nil
	}
	return suggestion, nil
}

func inlineAudio(resp *genai.GenerateContentResponse) []byte {
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

func groundedResources(resp *genai.GenerateContentResponse) []content.StudyResource {
	var resources []content.StudyResource
	seen := map[string]struct{}{}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			if _, dup := seen[chunk.Web.URI]; dup {
				continue
			}
			seen[chunk.Web.URI] = struct{}{}
			title := strings.TrimSpace(chunk.Web.Title)
			if title == "" {
				title = chunk.Web.URI
			}
			resources = append(resources, content.StudyResource{
				Title: title,
				URL:   chunk.Web.URI,
				Kind:  classifyResource(chunk.Web.URI),
			})
		}
	}
	return resources
}

// classifyResource buckets a grounded source as video or audio by URL.
func classifyResource(url string) content.ResourceKind {
	lower := strings.ToLower(url)
	for _, marker := range []string{"podcast", "spotify", "soundcloud", "audio", "radio"} {
		if strings.Contains(lower, marker) {
			return content.ResourceAudio
		}
	}
	return content.ResourceVideo
}

// bulletLines splits a prose response into clean summary points.
func bulletLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimLeft(line, "-*• \t")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
