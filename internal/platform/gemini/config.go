package gemini

import (
	"embed"
	"fmt"
	"os"
	"text/template"

	"github.com/phrazzld/memo-tagger/internal/classification"
	"github.com/phrazzld/memo-tagger/internal/config"
)

//go:embed prompts/tagging.tmpl
var promptFS embed.FS

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 2
)

// promptData is passed to the prompt template.
type promptData struct {
	Text      string
	MaxLabels int
}

// validateConfig checks the settings NewClassifier cannot work without and
// fills in defaults for the rest.
func validateConfig(cfg config.LLMConfig) (config.LLMConfig, error) {
	if cfg.GeminiAPIKey == "" {
		return cfg, fmt.Errorf("%w: gemini API key cannot be empty", classification.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return cfg, fmt.Errorf("%w: model name cannot be empty", classification.ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelaySeconds < 1 {
		cfg.RetryDelaySeconds = defaultRetryDelay
	}
	if cfg.MaxLabels <= 0 {
		cfg.MaxLabels = classification.DefaultMaxLabels
	}
	return cfg, nil
}

// loadPromptTemplate parses the template at path, or the embedded default
// when path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	var (
		content []byte
		err     error
	)
	if path == "" {
		content, err = promptFS.ReadFile("prompts/tagging.tmpl")
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template: %v", classification.ErrInvalidConfig, err)
	}

	tmpl, err := template.New("tagging").Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", classification.ErrInvalidConfig, err)
	}
	return tmpl, nil
}
