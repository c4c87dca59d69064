package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const apiBase = "https://api.zoom.us/v2"

// Client wraps the two Zoom calls we make, authenticated with the
// server-to-server OAuth flow. One attempt per call, bounded timeout;
// provider errors are returned to the caller for logging, never relayed
// to clients verbatim.
type Client struct {
	http *http.Client
}

func NewClient(accountID, clientID, clientSecret string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     "https://zoom.us/oauth/token",
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {accountID},
		},
	}

	httpClient := cfg.Client(context.Background())
	httpClient.Timeout = 15 * time.Second

	return &Client{http: httpClient}
}

type MeetingRequest struct {
	Topic     string    `json:"topic"`
	StartTime time.Time `json:"start_time"`
	Duration  int       `json:"duration"` // minutes
	Agenda    string    `json:"agenda,omitempty"`
}

type Meeting struct {
	ID       int64  `json:"id"`
	Topic    string `json:"topic"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
	Password string `json:"password"`
}

func (c *Client) CreateMeeting(ctx context.Context, req *MeetingRequest) (*Meeting, error) {
	body := map[string]interface{}{
		"topic":      req.Topic,
		"type":       2, // scheduled meeting
		"start_time": req.StartTime.UTC().Format("2006-01-02T15:04:05Z"),
		"duration":   req.Duration,
		"agenda":     req.Agenda,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		apiBase+"/users/me/meetings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("zoom request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("zoom returned status %d", resp.StatusCode)
	}

	var meeting Meeting
	if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
		return nil, fmt.Errorf("decode zoom response: %w", err)
	}
	return &meeting, nil
}
