package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackzampolin/juris/internal/language"
	"github.com/jackzampolin/juris/internal/prompts"
)

const (
	singleMaxSamples   = 5
	singleSampleLength = 500
	singleMaxTokens    = 200
)

type languageAnswer struct {
	IsLanguageMatch  bool    `json:"is_language_match"`
	DetectedLanguage string  `json:"detected_language"`
	Confidence       float64 `json:"confidence"`
	Explanation      string  `json:"explanation"`
}

// ValidateLanguage asks whether a record's samples are written in its
// declared language. It implements language.Oracle.
func (c *Client) ValidateLanguage(ctx context.Context, req language.Request) (language.Verdict, error) {
	samples := req.Samples
	if len(samples) > singleMaxSamples {
		samples = samples[:singleMaxSamples]
	}
	if len(samples) == 0 {
		return language.Verdict{}, fmt.Errorf("no text to validate for %s", req.FileName)
	}
	text := language.Truncate(strings.Join(samples, " "), singleSampleLength)

	user, err := prompts.Render(prompts.LanguageUser, map[string]string{
		"LanguageName": languageName(req.Language),
		"Text":         text,
	})
	if err != nil {
		return language.Verdict{}, err
	}

	content, err := c.complete(ctx, prompts.MustRender(prompts.LanguageSystem, nil), user, singleMaxTokens)
	if err != nil {
		return language.Verdict{}, fmt.Errorf("language validation for %s: %w", req.FileName, err)
	}

	var answer languageAnswer
	if err := decodeStructured(content, c.languageSchema, &answer); err != nil {
		return language.Verdict{}, fmt.Errorf("language validation for %s: %w", req.FileName, err)
	}
	return language.Verdict{
		Valid:            answer.IsLanguageMatch,
		DetectedLanguage: answer.DetectedLanguage,
		Confidence:       answer.Confidence,
		Explanation:      answer.Explanation,
	}, nil
}
