package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackzampolin/juris/internal/language"
	"github.com/jackzampolin/juris/internal/prompts"
	"github.com/jackzampolin/juris/internal/types"
)

const (
	batchItemLength   = 300
	batchPromptLength = 200
	batchMaxTokens    = 1000
	noTextContent     = "NO_TEXT_CONTENT"
)

// BatchItem is one record as presented to the batch prompt.
type BatchItem struct {
	FileName string
	Language types.Language
	Text     string
}

// BatchVerdict is the oracle's answer for one file of a batch.
type BatchVerdict struct {
	FileName    string  `json:"fileName"`
	Valid       bool    `json:"is_valid"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// NewBatchItem condenses a record into the text shown to the oracle: the
// first three non-empty samples among full text, first summary, free
// keywords, field of law and chamber.
func NewBatchItem(rec *types.Record) BatchItem {
	var samples []string
	add := func(s string, limit int) {
		if s = strings.TrimSpace(s); s != "" {
			samples = append(samples, language.Truncate(s, limit))
		}
	}
	add(rec.FullText, 300)
	if len(rec.Summaries) > 0 {
		add(rec.Summaries[0].Summary, 200)
		add(rec.Summaries[0].KeywordsFree, 100)
	}
	add(rec.FieldOfLaw, 0)
	add(rec.Chamber, 0)

	if len(samples) > 3 {
		samples = samples[:3]
	}
	text := language.Truncate(strings.Join(samples, " "), batchItemLength)
	if text == "" {
		text = noTextContent
	}
	return BatchItem{FileName: rec.FileName, Language: rec.LanguageMetadata, Text: text}
}

// ValidateBatch asks for a verdict on every item in one request. Files the
// model leaves out are absent from the result map.
func (c *Client) ValidateBatch(ctx context.Context, items []BatchItem) (map[string]BatchVerdict, error) {
	if len(items) == 0 {
		return map[string]BatchVerdict{}, nil
	}

	type promptItem struct {
		FileName     string
		LanguageName string
		Text         string
	}
	data := struct{ Items []promptItem }{}
	for _, item := range items {
		data.Items = append(data.Items, promptItem{
			FileName:     item.FileName,
			LanguageName: languageName(item.Language),
			Text:         language.Truncate(item.Text, batchPromptLength),
		})
	}
	user, err := prompts.Render(prompts.BatchUser, data)
	if err != nil {
		return nil, err
	}

	content, err := c.complete(ctx, prompts.MustRender(prompts.BatchSystem, nil), user, batchMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("batch of %d: %w", len(items), err)
	}

	var answers []BatchVerdict
	if err := decodeStructured(content, c.batchSchema, &answers); err != nil {
		return nil, fmt.Errorf("batch of %d: %w", len(items), err)
	}

	requested := make(map[string]struct{}, len(items))
	for _, item := range items {
		requested[item.FileName] = struct{}{}
	}
	verdicts := make(map[string]BatchVerdict, len(answers))
	for _, a := range answers {
		if _, ok := requested[a.FileName]; !ok {
			c.logger.Debug("oracle answered for unknown file", "file", a.FileName)
			continue
		}
		verdicts[a.FileName] = a
	}
	return verdicts, nil
}
