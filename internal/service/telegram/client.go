package telegram

import (
	"context"
	"fmt"
	"strconv"

	"SignalDesk/internal/domain/repository"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

const apiBase = "https://api.telegram.org"

// Client is a minimal Telegram bot API client: it publishes alerts to
// the configured channels, replies to webhook chats and resolves photo
// file URLs for the vision flow.
type Client struct {
	token     string
	channelID string
	archiveID string
	client    *xhttp.Client
	log       *applogger.Logger
}

var _ repository.Notifier = (*Client)(nil)

func NewClient(token, channelID, archiveID string, client *xhttp.Client, log *applogger.Logger) *Client {
	if log == nil {
		log = applogger.Nop()
	}
	return &Client{
		token:     token,
		channelID: channelID,
		archiveID: archiveID,
		client:    client,
		log:       log,
	}
}

// Publish sends an HTML-formatted message to the main channel.
func (c *Client) Publish(ctx context.Context, text string) error {
	return c.send(ctx, c.channelID, text)
}

// PublishArchive sends to the archive channel when one is configured.
func (c *Client) PublishArchive(ctx context.Context, text string) error {
	if c.archiveID == "" {
		return nil
	}
	return c.send(ctx, c.archiveID, text)
}

// Reply answers the chat a webhook update came from.
func (c *Client) Reply(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, strconv.FormatInt(chatID, 10), text)
}

func (c *Client) send(ctx context.Context, chatID, text string) error {
	if c.token == "" || chatID == "" {
		return fmt.Errorf("telegram not configured")
	}

	var resp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", apiBase, c.token),
		Form: map[string]string{
			"chat_id":                  chatID,
			"text":                     text,
			"parse_mode":               "HTML",
			"disable_web_page_preview": "true",
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram send rejected: %s", resp.Description)
	}
	return nil
}

// FileURL resolves a Telegram file_id to a downloadable URL.
func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	var resp struct {
		OK     bool `json:"ok"`
		Result struct {
			FilePath string `json:"file_path"`
		} `json:"result"`
	}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/bot%s/getFile", apiBase, c.token),
		QueryParams: map[string][]string{"file_id": {fileID}},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("telegram getFile: %w", err)
	}
	if !resp.OK || resp.Result.FilePath == "" {
		return "", fmt.Errorf("telegram getFile: empty file path")
	}
	return fmt.Sprintf("%s/file/bot%s/%s", apiBase, c.token, resp.Result.FilePath), nil
}
