package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// InventoryClient talks to the inventory service. Reservation and release
// are best-effort from the order service's point of view; the caller decides
// whether a failure is fatal.
type InventoryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type inventoryCheckResponse struct {
	Available bool `json:"available"`
}

func (c *InventoryClient) CheckAvailability(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	url := fmt.Sprintf("%s/api/inventory/check/%s?quantity=%d", c.baseURL, productID, quantity)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}

	var out inventoryCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Available, nil
}

func (c *InventoryClient) Reserve(ctx context.Context, productID uuid.UUID, quantity int) error {
	return c.post(ctx, "/api/inventory/reserve", productID, quantity)
}

func (c *InventoryClient) Release(ctx context.Context, productID uuid.UUID, quantity int) error {
	return c.post(ctx, "/api/inventory/release", productID, quantity)
}

func (c *InventoryClient) post(ctx context.Context, path string, productID uuid.UUID, quantity int) error {
	body, err := json.Marshal(map[string]any{
		"productId": productID,
		"quantity":  quantity,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}
	return nil
}
