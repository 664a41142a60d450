package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackzampolin/juris/internal/schema"
)

// decodeStructured pulls the JSON answer out of model output, checks it
// against the verdict schema and decodes it into out.
func decodeStructured(content string, validator *schema.Validator, out any) error {
	parsed, err := answerJSON(content)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if validator != nil {
		violations, err := validator.ValidateJSON(parsed)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if len(violations) > 0 {
			return fmt.Errorf("%w: %s", ErrMalformedResponse, schema.Summary(violations))
		}
	}
	if err := json.Unmarshal(parsed, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// answerJSON returns the first complete JSON object or array in a model
// answer. Verdicts arrive fenced in markdown or wrapped in a sentence; the
// decoder stops after one value, so fences and trailing prose are ignored.
func answerJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("empty answer")
	}
	for i := 0; i < len(content); i++ {
		if content[i] != '{' && content[i] != '[' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(content[i:])).Decode(&raw); err == nil {
			return raw, nil
		}
	}
	return nil, errors.New("no JSON verdict in answer")
}
