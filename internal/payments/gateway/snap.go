package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"pustaka/pkg/client"
)

const snapTransactionsPath = "/snap/v1/transactions"

type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type CustomerDetails struct {
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

type ItemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type TransactionRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CustomerDetails    *CustomerDetails   `json:"customer_details,omitempty"`
	ItemDetails        []ItemDetail       `json:"item_details,omitempty"`
}

type TransactionResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages,omitempty"`
}

// Checkout opens a hosted payment page for one order.
type Checkout interface {
	CreateTransaction(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error)
}

type SnapClient struct {
	http *client.HttpClient
}

// NewSnapClient authenticates with HTTP basic auth, the server key as the
// username and an empty password.
func NewSnapClient(baseURL, serverKey string) *SnapClient {
	c := client.NewHttpClient(strings.TrimSuffix(baseURL, "/"))
	c.Headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(serverKey+":"))
	return &SnapClient{http: c}
}

func (c *SnapClient) CreateTransaction(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error) {
	resp, err := c.http.Do(ctx, http.MethodPost, snapTransactionsPath, req, nil)
	if err != nil {
		return nil, fmt.Errorf("snap transaction for %s: %w", req.TransactionDetails.OrderID, err)
	}

	var out TransactionResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("decode snap response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snap returned %d: %s", resp.StatusCode, strings.Join(out.ErrorMessages, "; "))
	}
	if out.Token == "" {
		return nil, fmt.Errorf("snap returned no token for %s", req.TransactionDetails.OrderID)
	}
	return &out, nil
}
