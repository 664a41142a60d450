// Package prompts renders the embedded oracle prompt templates.
package prompts

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Prompt keys, one per embedded template.
const (
	LanguageSystem = "language_system"
	LanguageUser   = "language_user"
	BatchSystem    = "batch_system"
	BatchUser      = "batch_user"
	DateSystem     = "date_system"
	DateUser       = "date_user"
)

var templates = template.Must(template.New("prompts").ParseFS(templateFS, "templates/*.tmpl"))

// Render executes the template for key with data.
func Render(key string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, key+".tmpl", data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", key, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// MustRender is Render for templates without data dependencies.
func MustRender(key string, data any) string {
	s, err := Render(key, data)
	if err != nil {
		panic(err)
	}
	return s
}

// HashText returns a SHA256 hash of the text for change detection.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
