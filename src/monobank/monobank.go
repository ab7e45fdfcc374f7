package monobank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api.monobank.ua"

	userAgent = "FOPSmart/1.0"

	// UAH, substituted when the API omits a currency code.
	defaultCurrencyCode = 980
	defaultAccountType  = "black"
)

var (
	// ErrInvalidToken is a terminal failure: the token was revoked or never
	// valid, and the user has to reconnect. Never retried.
	ErrInvalidToken = errors.New("invalid monobank token")
	// ErrRateLimited means the API asked us to back off. Retryable after
	// roughly 60 seconds.
	ErrRateLimited = errors.New("too many requests to monobank api, please try again in 60 seconds")
	// ErrNetwork covers transport failures and timeouts. Retryable.
	ErrNetwork = errors.New("network error when connecting to monobank")
)

// APIError carries the upstream status code alongside the classified
// sentinel so callers can branch with errors.Is.
type APIError struct {
	StatusCode int
	Message    string
	Kind       error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("monobank: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("monobank: %v (status %d)", e.Kind, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// Account is one entry of the client-info response.
type Account struct {
	ID           string   `json:"id"`
	Balance      int64    `json:"balance"`
	CreditLimit  int64    `json:"creditLimit"`
	CurrencyCode int      `json:"currencyCode"`
	CashbackType string   `json:"cashbackType"`
	IBAN         string   `json:"iban"`
	Type         string   `json:"type"`
	MaskedPan    []string `json:"maskedPan"`
}

type ClientInfo struct {
	ClientID    string    `json:"clientId"`
	Name        string    `json:"name"`
	WebHookURL  string    `json:"webHookUrl"`
	Permissions string    `json:"permissions"`
	Accounts    []Account `json:"accounts"`
}

// StatementItem is one transaction row from the statement endpoint. All
// amounts are in minor currency units. Items arrive newest first.
type StatementItem struct {
	ID             string `json:"id"`
	Time           int64  `json:"time"`
	Description    string `json:"description"`
	Comment        string `json:"comment"`
	MCC            int    `json:"mcc"`
	OriginalMCC    int    `json:"originalMcc"`
	Hold           bool   `json:"hold"`
	Amount         int64  `json:"amount"`
	CurrencyCode   int    `json:"currencyCode"`
	CommissionRate int64  `json:"commissionRate"`
	CashbackAmount int64  `json:"cashbackAmount"`
	Balance        int64  `json:"balance"`
	CounterIban    string `json:"counterIban"`
	CounterName    string `json:"counterName"`
	CounterEdrpou  string `json:"counterEdrpou"`
	ReceiptID      string `json:"receiptId"`
	InvoiceID      string `json:"invoiceId"`
}

type apiErrorBody struct {
	ErrorDescription string `json:"errorDescription"`
}

// Client talks to the Monobank personal API. It is stateless per call and
// never retries internally; backoff policy belongs to the caller. Construct
// one explicitly and pass it into the sync service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetClientInfo fetches the client profile and its accounts. Upstream allows
// roughly one call per 60 seconds per token.
func (c *Client) GetClientInfo(ctx context.Context, token string) (*ClientInfo, error) {
	body, err := c.get(ctx, "/personal/client-info", token)
	if err != nil {
		return nil, err
	}

	var info ClientInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse client-info response: %w", err)
	}

	if info.Permissions == "" {
		info.Permissions = "psp"
	}
	for i := range info.Accounts {
		if info.Accounts[i].CurrencyCode == 0 {
			info.Accounts[i].CurrencyCode = defaultCurrencyCode
		}
		if info.Accounts[i].Type == "" {
			info.Accounts[i].Type = defaultAccountType
		}
	}
	return &info, nil
}

// GetStatements fetches transactions for one account over the [from, to]
// unix-second window, newest first. When to is zero the window is open-ended.
// A non-array or empty response is normalized to an empty list.
func (c *Client) GetStatements(ctx context.Context, token, accountID string, from, to int64) ([]StatementItem, error) {
	endpoint := fmt.Sprintf("/personal/statement/%s/%d", accountID, from)
	if to > 0 {
		endpoint += fmt.Sprintf("/%d", to)
	}

	body, err := c.get(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}

	var items []StatementItem
	if err := json.Unmarshal(body, &items); err != nil {
		return []StatementItem{}, nil
	}
	if items == nil {
		items = []StatementItem{}
	}
	for i := range items {
		if items[i].CurrencyCode == 0 {
			items[i].CurrencyCode = defaultCurrencyCode
		}
	}
	return items, nil
}

func (c *Client) get(ctx context.Context, endpoint, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Token", token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Message: err.Error(), Kind: ErrNetwork}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: err.Error(), Kind: ErrNetwork}
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	var errBody apiErrorBody
	_ = json.Unmarshal(body, &errBody)

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errBody.ErrorDescription, Kind: ErrInvalidToken}
	case http.StatusTooManyRequests:
		return nil, &APIError{StatusCode: resp.StatusCode, Kind: ErrRateLimited}
	default:
		msg := errBody.ErrorDescription
		if msg == "" {
			msg = "monobank api error"
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Kind: ErrNetwork}
	}
}
