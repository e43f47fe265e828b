package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mealplan-generator/internal/infrastructure/config"
	"mealplan-generator/internal/pkg/common"
)

// Generator produces one recipe draft per request. Implementations may fail
// with a generic generation error; callers treat every error the same way.
type Generator interface {
	Generate(ctx context.Context, req *common.GenerateRequest) (*common.RecipeDraft, error)
}

// Service generates recipe drafts through the completion API.
type Service struct {
	config *config.GeneratorConfig
	client *Client
}

// NewService creates the generator service.
func NewService(cfg *config.GeneratorConfig) *Service {
	return &Service{
		config: cfg,
		client: NewClient(cfg),
	}
}

// Generate builds the prompt for one meal slot, calls the completion API and
// parses the result into a draft. Unparseable responses consume the same
// retry budget as transport failures.
func (s *Service) Generate(ctx context.Context, req *common.GenerateRequest) (*common.RecipeDraft, error) {
	prompt := buildPrompt(req)

	attempts := req.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		start := time.Now()
		content, err := s.client.Complete(ctx, prompt)
		common.LogGeneratorCall(time.Since(start), err, "")
		if err != nil {
			// the client already retried transport errors, give up
			return nil, err
		}

		draft, err := parseDraft(content)
		if err != nil {
			lastErr = err
			common.LogWarn("generator returned unparseable draft",
				zap.Error(err),
				zap.Int("attempt", attempt+1),
				zap.String("meal_slot", string(req.MealSlot)),
			)
			continue
		}
		return draft, nil
	}

	return nil, fmt.Errorf("generation failed after %d attempts: %w", attempts, lastErr)
}

func buildPrompt(req *common.GenerateRequest) string {
	return fmt.Sprintf(`Create exactly one %s recipe as a JSON object.
Dietary requirements: %s
Allergies to avoid completely: %s
Preferred cuisines, most wanted first: %s
Allowed meat types: %s
Do NOT use any of these recipe names or close variations of them:
%s
Rules:
1. Respect every dietary requirement and allergy, no exceptions.
2. Pick the cuisine from the preferred list, favoring the first entries.
3. complexity is an integer from 1 (easy) to 3 (hard).
4. prep_minutes, cook_minutes and servings are non-negative integers.
5. Return only the JSON object, no prose, no code fences.
6. All keys must be double-quoted.
JSON shape:
{"name":"...","description":"...","cuisine":"...","prep_minutes":10,"cook_minutes":20,"servings":2,"complexity":1,"ingredients":[{"name":"...","amount":"1","unit":"cup"}],"instructions":["..."],"tags":["..."],"nutrition":{"calories":0,"protein":0,"carbs":0,"fat":0},"image_url":""}`,
		req.MealSlot,
		orUnspecified(common.StringSliceToString(req.Dietary)),
		orUnspecified(common.StringSliceToString(req.Allergies)),
		orUnspecified(common.StringSliceToString(req.CuisinePriority)),
		orUnspecified(common.StringSliceToString(req.MeatTypes)),
		common.FormatExcludeNames(req.ExcludeNames),
	)
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unspecified)"
	}
	return s
}

// parseDraft extracts and decodes the JSON document from raw model output.
func parseDraft(content string) (*common.RecipeDraft, error) {
	content = common.ExtractJSONObject(content)
	content = common.QuoteJSONKeys(content)

	preview := content
	if len(preview) > 300 {
		preview = preview[:300]
	}
	common.LogDebug("generator draft content",
		zap.Int("length", len(content)),
		zap.String("preview", preview),
	)

	var draft common.RecipeDraft
	if err := common.ParseJSON(content, &draft); err != nil {
		return nil, fmt.Errorf("failed to parse draft: %w", err)
	}

	if strings.TrimSpace(draft.Name) == "" {
		return nil, fmt.Errorf("draft has no name")
	}

	return &draft, nil
}
