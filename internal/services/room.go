package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RoomProvider provisions video/chat rooms with the external
// consultation-room service. Provisioning is a best-effort side effect
// of payment confirmation; failures are logged by the caller, never
// propagated.
type RoomProvider interface {
	CreateRoom(ctx context.Context, kind string, appointmentID uint) (string, error)
}

// RoomClient talks to the room provider's HTTP API
type RoomClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewRoomClient(baseURL, apiKey string) *RoomClient {
	return &RoomClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

type createRoomRequest struct {
	Kind      string `json:"kind"`
	Reference string `json:"reference"`
}

type createRoomResponse struct {
	RoomID string `json:"room_id"`
}

// CreateRoom requests a room of the given kind ("video" or "chat") and
// returns the provider's room id.
func (c *RoomClient) CreateRoom(ctx context.Context, kind string, appointmentID uint) (string, error) {
	payload, err := json.Marshal(createRoomRequest{
		Kind:      kind,
		Reference: fmt.Sprintf("appointment-%d", appointmentID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/rooms", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("room provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var out createRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.RoomID == "" {
		return "", fmt.Errorf("room provider returned an empty room id")
	}

	return out.RoomID, nil
}
