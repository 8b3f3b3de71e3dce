package wandb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Support bot endpoints. The bot requires no credential; questions and
// answers contain no tenant data.
const (
	wandbotStatusPath = "/status"
	wandbotQueryPath  = "/chat/query"
)

// botApplication identifies this gateway to the support bot for its own
// usage accounting.
const botApplication = "tracegate"

// BotAnswer is the support bot's reply to a documentation question.
type BotAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// AskSupportBot sends a product question to the W&B support bot. The bot's
// readiness endpoint is checked first so a cold bot yields a clear error
// instead of a long hang followed by a timeout.
func (c *Client) AskSupportBot(ctx context.Context, question string) (*BotAnswer, error) {
	if err := c.checkBotReady(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{
		"question":    question,
		"application": botApplication,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding question: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.wandbotURL+wandbotQueryPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling support bot: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp)
	}

	var answer BotAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("decoding support bot response: %w", err)
	}
	if answer.Answer == "" {
		return nil, fmt.Errorf("support bot returned an empty answer")
	}
	return &answer, nil
}

func (c *Client) checkBotReady(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.wandbotURL+wandbotStatusPath, nil)
	if err != nil {
		return fmt.Errorf("building status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("checking support bot status: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp)
	}

	var status struct {
		Initialized bool `json:"initialized"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decoding support bot status: %w", err)
	}
	if !status.Initialized {
		return fmt.Errorf("support bot is still initializing, try again shortly")
	}
	return nil
}
