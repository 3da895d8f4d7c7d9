package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recipe-api/domain"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second
)

// ErrUpstream is returned when the model endpoint fails or produces an
// unusable response.
var ErrUpstream = upstreamError{}

type upstreamError struct{}

func (upstreamError) Error() string { return "model upstream failure" }

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// New creates a Client for the given endpoint. model falls back to
// defaultModel when empty.
func New(baseURL, apiKey, model string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const analysisSystemPrompt = `You are a culinary assistant. Reply with a single JSON object, no prose.
Keys: "summary" (two sentences), "healthScore" (integer 0-100), "tags"
(array of short strings), "substitutions" (array of objects with
"ingredient", "replaceWith", "reason").`

const modificationSystemPrompt = `You are a culinary assistant. Rewrite the given recipe according to the
user's instruction. Reply with a single JSON object, no prose. Keys:
"title", "ingredients" (array of strings), "steps" (array of strings),
"notes" (string explaining what changed).`

// AnalyzeRecipe asks the model for a structured breakdown of the recipe.
func (c *Client) AnalyzeRecipe(ctx context.Context, recipe domain.Recipe) (domain.RecipeAnalysis, error) {
	var parsed struct {
		Summary       string                `json:"summary"`
		HealthScore   int                   `json:"healthScore"`
		Tags          []string              `json:"tags"`
		Substitutions []domain.Substitution `json:"substitutions"`
	}
	if err := c.complete(ctx, analysisSystemPrompt, recipePrompt(recipe, ""), &parsed); err != nil {
		return domain.RecipeAnalysis{}, err
	}
	return domain.RecipeAnalysis{
		RecipeID:      recipe.ID,
		Status:        domain.AnalysisReady,
		Summary:       parsed.Summary,
		HealthScore:   clampScore(parsed.HealthScore),
		Tags:          parsed.Tags,
		Substitutions: parsed.Substitutions,
		GeneratedAt:   time.Now().Unix(),
	}, nil
}

// ModifyRecipe asks the model to rewrite the recipe per the instruction.
func (c *Client) ModifyRecipe(ctx context.Context, recipe domain.Recipe, instruction string) (domain.RecipeModification, error) {
	var parsed struct {
		Title       string   `json:"title"`
		Ingredients []string `json:"ingredients"`
		Steps       []string `json:"steps"`
		Notes       string   `json:"notes"`
	}
	if err := c.complete(ctx, modificationSystemPrompt, recipePrompt(recipe, instruction), &parsed); err != nil {
		return domain.RecipeModification{}, err
	}
	if parsed.Title == "" || len(parsed.Ingredients) == 0 {
		return domain.RecipeModification{}, fmt.Errorf("%w: incomplete modification", ErrUpstream)
	}
	return domain.RecipeModification{
		RecipeID:    recipe.ID,
		Instruction: instruction,
		Title:       parsed.Title,
		Ingredients: parsed.Ingredients,
		Steps:       parsed.Steps,
		Notes:       parsed.Notes,
	}, nil
}

func (c *Client) complete(ctx context.Context, system, user string, out any) error {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	}
	body.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var wire chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(wire.Choices) == 0 {
		return fmt.Errorf("%w: empty response", ErrUpstream)
	}
	content := strings.TrimSpace(wire.Choices[0].Message.Content)
	// Some models wrap JSON answers in a fenced block despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), out); err != nil {
		return fmt.Errorf("%w: malformed content: %v", ErrUpstream, err)
	}
	return nil
}

func recipePrompt(recipe domain.Recipe, instruction string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recipe: %s (serves %d, ready in %d minutes)\n", recipe.Title, recipe.Servings, recipe.ReadyInMinutes)
	if len(recipe.Ingredients) > 0 {
		b.WriteString("Ingredients:\n")
		for _, ing := range recipe.Ingredients {
			line := ing.Original
			if line == "" {
				line = ing.Name
			}
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	if recipe.Instructions != "" {
		fmt.Fprintf(&b, "Instructions:\n%s\n", recipe.Instructions)
	}
	if instruction != "" {
		fmt.Fprintf(&b, "User instruction: %s\n", instruction)
	}
	return b.String()
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
