package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/drgwatch/pkg/log"
)

const webhookTimeout = time.Second * 30

// ResponseKind discriminates the three webhook reply shapes.
type ResponseKind int

const (
	// ResponseSuccess carries the id of the created or updated message.
	ResponseSuccess ResponseKind = iota
	// ResponseRateLimited instructs the caller to suspend and resend.
	ResponseRateLimited
	// ResponseError is a rejection with a discord error code.
	ResponseError
)

// Response is the webhook reply decoded into an explicit union instead of a
// bag of optional fields. Only the fields of the matching Kind are set.
type Response struct {
	Kind       ResponseKind
	MessageID  string
	Global     bool
	RetryAfter float64
	Message    string
	Code       int
}

// decodeResponse classifies a reply body by field presence: {id} is success,
// {global,message,retry_after} is a rate limit, {message,code} is an error.
func decodeResponse(body []byte) (Response, error) {
	var raw struct {
		ID         *string  `json:"id"`
		Global     *bool    `json:"global"`
		RetryAfter *float64 `json:"retry_after"`
		Message    *string  `json:"message"`
		Code       *int     `json:"code"`
	}

	if errUnmarshal := json.Unmarshal(body, &raw); errUnmarshal != nil {
		return Response{}, errors.Join(fmt.Errorf("%w: %s", errUnmarshal, body), domain.ErrWebhookDecode)
	}

	message := ""
	if raw.Message != nil {
		message = *raw.Message
	}

	switch {
	case raw.ID != nil:
		return Response{Kind: ResponseSuccess, MessageID: *raw.ID}, nil
	case raw.RetryAfter != nil:
		return Response{
			Kind:       ResponseRateLimited,
			Global:     raw.Global != nil && *raw.Global,
			RetryAfter: *raw.RetryAfter,
			Message:    message,
		}, nil
	case raw.Code != nil:
		return Response{Kind: ResponseError, Code: *raw.Code, Message: message}, nil
	default:
		return Response{}, errors.Join(fmt.Errorf("body: %s", body), domain.ErrWebhookDecode)
	}
}

// Sender is the remote side of the reconciliation protocol.
type Sender interface {
	Create(ctx context.Context, params *discordgo.WebhookParams) (Response, http.Header, error)
	Edit(ctx context.Context, messageID string, params *discordgo.WebhookParams) (Response, http.Header, error)
	Delete(ctx context.Context, messageID string) (http.Header, error)
}

// WebhookClient drives a single discord webhook over plain HTTP. The
// discordgo session machinery is bypassed on purpose: the engine owns retry
// and throttling, so it needs the raw response bodies and rate limit headers.
type WebhookClient struct {
	httpClient *http.Client
	webhookURL string
}

func NewWebhookClient(webhookURL string) *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{Timeout: webhookTimeout},
		webhookURL: webhookURL,
	}
}

// Create posts a new message, requesting delivery confirmation so the reply
// carries the created message id.
func (c *WebhookClient) Create(ctx context.Context, params *discordgo.WebhookParams) (Response, http.Header, error) {
	return c.send(ctx, http.MethodPost, c.webhookURL+"?wait=true", params)
}

// Edit updates an existing message in place.
func (c *WebhookClient) Edit(ctx context.Context, messageID string, params *discordgo.WebhookParams) (Response, http.Header, error) {
	return c.send(ctx, http.MethodPatch, fmt.Sprintf("%s/messages/%s?wait=true", c.webhookURL, messageID), params)
}

// Delete removes a message. Discord replies with no body on success, so only
// the headers are returned for governor inspection.
func (c *WebhookClient) Delete(ctx context.Context, messageID string) (http.Header, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/messages/%s", c.webhookURL, messageID), nil)
	if errReq != nil {
		return nil, errors.Join(errReq, domain.ErrWebhookRequest)
	}

	resp, errResp := c.httpClient.Do(req)
	if errResp != nil {
		return nil, errors.Join(errResp, domain.ErrWebhookRequest)
	}

	defer log.Closer(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)

		return resp.Header, errors.Join(fmt.Errorf("status %s: %s", resp.Status, body), domain.ErrWebhookRequest)
	}

	return resp.Header, nil
}

func (c *WebhookClient) send(ctx context.Context, method string, url string, params *discordgo.WebhookParams) (Response, http.Header, error) {
	payload, errPayload := json.Marshal(params)
	if errPayload != nil {
		return Response{}, nil, errors.Join(errPayload, domain.ErrWebhookRequest)
	}

	req, errReq := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if errReq != nil {
		return Response{}, nil, errors.Join(errReq, domain.ErrWebhookRequest)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, errResp := c.httpClient.Do(req)
	if errResp != nil {
		return Response{}, nil, errors.Join(errResp, domain.ErrWebhookRequest)
	}

	defer log.Closer(resp.Body)

	body, errBody := io.ReadAll(resp.Body)
	if errBody != nil {
		return Response{}, resp.Header, errors.Join(errBody, domain.ErrWebhookRequest)
	}

	decoded, errDecode := decodeResponse(body)
	if errDecode != nil {
		return Response{}, resp.Header, errDecode
	}

	return decoded, resp.Header, nil
}
