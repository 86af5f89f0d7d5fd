package llm

import (
	"context"
	"fmt"
	"strings"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

const chatCompletionsURL = "https://api.openai.com/v1/chat/completions"

const systemPrompt = "You are a disciplined crypto futures analyst. " +
	"Reply ONLY in this exact format, one field per line:\n" +
	"Decision: LONG|SHORT|WAIT\nEntry: <number>\nSL: <number>\n" +
	"TP1: <number>\nTP2: <number>\nRR: <number>\nWhy: <one sentence>\nRisk: <one sentence>"

// Client calls the OpenAI chat completions API for both text and chart
// image analysis. Any API failure degrades to a WAIT decision so the
// pipeline never stalls on the model.
type Client struct {
	apiKey string
	model  string
	client *xhttp.Client
	log    *applogger.Logger
}

var _ repository.Analyst = (*Client)(nil)

func NewClient(apiKey, model string, client *xhttp.Client, log *applogger.Logger) *Client {
	if log == nil {
		log = applogger.Nop()
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{apiKey: apiKey, model: model, client: client, log: log}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze builds a prompt from the signal and its enrichment and parses
// the reply into the strict decision schema.
func (c *Client) Analyze(ctx context.Context, sig *models.SignalDescriptor, enr *models.Enrichment) (*models.Decision, error) {
	prompt := buildPrompt(sig, enr)
	raw, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		c.log.Error("openai chat failed", applogger.Error(err))
		return waitDecision("analysis unavailable"), nil
	}
	return ParseDecision(raw), nil
}

// AnalyzeImage sends a chart screenshot through the vision flow.
func (c *Client) AnalyzeImage(ctx context.Context, imageURL, caption string) (*models.Decision, error) {
	if caption == "" {
		caption = "Analyze this chart and decide."
	}
	content := []map[string]interface{}{
		{"type": "text", "text": caption},
		{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
	}
	raw, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: content},
	})
	if err != nil {
		c.log.Error("openai vision failed", applogger.Error(err))
		return waitDecision("chart analysis unavailable"), nil
	}
	return ParseDecision(raw), nil
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai api key not configured")
	}

	var resp chatResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    chatCompletionsURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		},
		Body: chatRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: 0.2,
			MaxTokens:   350,
		},
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildPrompt(sig *models.SignalDescriptor, enr *models.Enrichment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Signal: %s %s %s", sig.Symbol, sig.Timeframe, sig.Setup)
	if sig.Close != nil {
		fmt.Fprintf(&b, " @ %.2f", *sig.Close)
	}
	b.WriteString("\n")
	if sig.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", sig.Context)
	}
	if enr != nil {
		if enr.Funding != nil {
			fmt.Fprintf(&b, "Funding rate: %.6f\n", *enr.Funding)
		}
		if enr.LSRatio5m != nil {
			fmt.Fprintf(&b, "Top trader L/S ratio (5m): %.3f\n", *enr.LSRatio5m)
		}
		if enr.LiqRecent != nil {
			fmt.Fprintf(&b, "Recent large liquidation-size trades: %d\n", *enr.LiqRecent)
		}
		if enr.NewsBrief != "" {
			fmt.Fprintf(&b, "News (score %+d): %s\n", enr.NewsScore, enr.NewsBrief)
		}
	}
	b.WriteString("Decide whether to take this trade.")
	return b.String()
}

func waitDecision(why string) *models.Decision {
	return &models.Decision{Decision: models.DecisionWait, Why: why, Risk: "model unavailable"}
}
