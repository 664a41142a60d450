package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackzampolin/juris/internal/prompts"
	"github.com/jackzampolin/juris/internal/textutil"
	"github.com/jackzampolin/juris/internal/types"
)

const (
	noDateSentinel = "NO_DATE"
	dateMaxTokens  = 20
)

// ExtractDate asks for the decision date written in a legend. An empty
// string means the model found no usable date.
func (c *Client) ExtractDate(ctx context.Context, legend string, lang types.Language) (string, error) {
	user, err := prompts.Render(prompts.DateUser, map[string]string{
		"Legend":       legend,
		"LanguageName": languageName(lang),
	})
	if err != nil {
		return "", err
	}

	content, err := c.complete(ctx, prompts.MustRender(prompts.DateSystem, nil), user, dateMaxTokens)
	if err != nil {
		return "", fmt.Errorf("date extraction: %w", err)
	}
	return parseDateAnswer(content), nil
}

// parseDateAnswer accepts only a real YYYY-MM-DD date.
func parseDateAnswer(content string) string {
	answer := strings.Trim(strings.TrimSpace(content), "\"'`.")
	if answer == "" || answer == noDateSentinel {
		return ""
	}
	if !textutil.IsCalendarDate(answer) {
		return ""
	}
	return answer
}
