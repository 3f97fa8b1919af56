package evidence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pkarpov/verity/internal/model"
)

// Translator normalizes claim text into the pipeline's working language.
// With an OpenAI-compatible backend configured it translates via the chat
// API; otherwise it passes text through unchanged. Translation is always
// best-effort: on failure the caller gets the original text back along
// with the error so the pipeline can degrade instead of aborting.
type Translator struct {
	client *openai.Client
	model  string
	// timeout bounds each translation call
	timeout time.Duration
}

// NewTranslator creates a translator from the synthesis backend config.
// Providers other than openai yield a passthrough translator.
func NewTranslator(config model.LLMConfig) *Translator {
	t := &Translator{
		model:   config.Model,
		timeout: time.Duration(config.Timeout) * time.Second,
	}
	if t.timeout == 0 {
		t.timeout = 30 * time.Second
	}
	if strings.EqualFold(config.Provider, "openai") && config.APIKey != "" {
		clientConfig := openai.DefaultConfig(config.APIKey)
		if config.BaseURL != "" {
			clientConfig.BaseURL = config.BaseURL
		}
		t.client = openai.NewClientWithConfig(clientConfig)
	}
	return t
}

// Translate converts text from sourceLang to targetLang. Returns the input
// unchanged when the languages already match or no backend is configured.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if text == "" || sameLanguage(sourceLang, targetLang) || t.client == nil {
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	chatModel := t.model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	prompt := fmt.Sprintf(
		"Translate the following text into %s. Preserve factual content exactly; do not add or remove information. Respond with the translation only.\n\n%s",
		languageName(targetLang), text)

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return text, fmt.Errorf("translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return text, fmt.Errorf("translate: empty response")
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return text, fmt.Errorf("translate: empty translation")
	}
	return translated, nil
}

// sameLanguage compares language tags by primary subtag, so "en-US" and
// "en" match. Unknown or auto-detect tags never match.
func sameLanguage(a, b string) bool {
	a = primarySubtag(a)
	b = primarySubtag(b)
	if a == "" || b == "" || a == "auto" || a == "unknown" {
		return false
	}
	return a == b
}

func primarySubtag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if idx := strings.IndexAny(tag, "-_"); idx > 0 {
		tag = tag[:idx]
	}
	return tag
}

// languageName expands the common language codes that appear in claims;
// unknown codes are passed verbatim, which LLM backends handle fine.
func languageName(tag string) string {
	switch primarySubtag(tag) {
	case "en":
		return "English"
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	case "de":
		return "German"
	case "pt":
		return "Portuguese"
	case "hi":
		return "Hindi"
	case "zh":
		return "Chinese"
	case "ar":
		return "Arabic"
	case "ru":
		return "Russian"
	default:
		return tag
	}
}
