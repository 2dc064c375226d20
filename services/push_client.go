package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"puzzle-game-system/utils"
)

// RelayPushClient hands messages to the push relay service, which owns the
// provider credentials and wire protocol. The relay answers 410 Gone for
// tokens the provider has invalidated.
type RelayPushClient struct {
	BaseURL      string
	ServiceToken string
	HTTPClient   *http.Client
}

func NewRelayPushClient(baseURL, serviceToken string) *RelayPushClient {
	return &RelayPushClient{
		BaseURL:      baseURL,
		ServiceToken: serviceToken,
		HTTPClient:   utils.HTTPClient,
	}
}

func (c *RelayPushClient) Send(ctx context.Context, token string, msg PushMessage) error {
	payload, err := json.Marshal(struct {
		Token string `json:"token"`
		PushMessage
	}{Token: token, PushMessage: msg})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/push/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.ServiceToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusGone:
		return ErrUnregisteredToken
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push relay returned %d: %s", resp.StatusCode, body)
	}
}
