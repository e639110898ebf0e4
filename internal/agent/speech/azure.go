// Package speech synthesizes the spoken rendition of each final answer and
// runs it as a fire-and-forget side effect that never blocks or fails a turn.
package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/banxian-ai/server/internal/agent/model"
)

// Synthesizer turns final answer text into an audio artifact.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceStyle string) ([]byte, error)
}

// AzureSynthesizer calls the Azure Cognitive Services TTS endpoint with an
// SSML body carrying the persona voice, role and the mood-derived style.
type AzureSynthesizer struct {
	httpc     *http.Client
	endpoint  string
	key       string
	voice     string
	role      string
	format    string
	userAgent string
}

func NewAzureSynthesizer(config model.SpeechConfig) *AzureSynthesizer {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AzureSynthesizer{
		httpc:     &http.Client{Timeout: timeout},
		endpoint:  config.Endpoint,
		key:       config.Key,
		voice:     config.Voice,
		role:      config.Role,
		format:    config.Format,
		userAgent: config.UserAgent,
	}
}

const ssmlTemplate = `<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xmlns:mstts='https://www.w3.org/2001/mstts' xml:lang='zh-CN'>
<voice name='%s'>
<mstts:express-as role='%s' style='%s'>%s</mstts:express-as>
</voice>
</speak>`

func (a *AzureSynthesizer) Synthesize(ctx context.Context, text, voiceStyle string) ([]byte, error) {
	body := fmt.Sprintf(ssmlTemplate, a.voice, a.role, voiceStyle, escapeXML(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", a.format)
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}
	return audio, nil
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

var _ Synthesizer = (*AzureSynthesizer)(nil)
