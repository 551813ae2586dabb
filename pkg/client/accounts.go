package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"circdesk/pkg/model"
)

type AccountsClient struct {
	httpClient *HttpClient
}

func NewAccountsClient(baseUrl string) *AccountsClient {
	return &AccountsClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *AccountsClient) operatorHeaders(operator string) map[string]string {
	return map[string]string{"X-Operator-Id": operator}
}

func (c *AccountsClient) GetPatron(patronID string) (*Response, error) {
	return c.httpClient.GET("/api/v1/accounts/id/" + url.PathEscape(patronID))
}

func (c *AccountsClient) GetTransactions(patronID string, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/accounts/id/%s/transactions?limit=%d&offset=%d",
		url.PathEscape(patronID), limit, offset)
	return c.httpClient.GET(path)
}

func (c *AccountsClient) RecordPayment(operator string, patronID string, body any) (*Response, error) {
	path := "/api/v1/accounts/id/" + url.PathEscape(patronID) + "/payments"
	return c.httpClient.POSTWithHeaders(path, body, c.operatorHeaders(operator))
}

func (c *AccountsClient) Waive(operator string, patronID string, body any) (*Response, error) {
	path := "/api/v1/accounts/id/" + url.PathEscape(patronID) + "/waivers"
	return c.httpClient.POSTWithHeaders(path, body, c.operatorHeaders(operator))
}

func (c *AccountsClient) Assess(operator string, patronID string, body any) (*Response, error) {
	path := "/api/v1/accounts/id/" + url.PathEscape(patronID) + "/assessments"
	return c.httpClient.POSTWithHeaders(path, body, c.operatorHeaders(operator))
}

func (c *AccountsClient) Recompute(operator string, patronID string) (*Response, error) {
	path := "/api/v1/accounts/id/" + url.PathEscape(patronID) + "/recompute"
	return c.httpClient.POSTWithHeaders(path, struct{}{}, c.operatorHeaders(operator))
}

func (c *AccountsClient) GetSummary() (*Response, error) {
	return c.httpClient.GET("/api/v1/accounts/summary")
}

func (c *AccountsClient) DecodePatron(resp *Response) (*model.Patron, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode patron wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var patron model.Patron
	if err := json.Unmarshal(wrapper.Data, &patron); err != nil {
		return nil, fmt.Errorf("could not decode patron json:\n%+v\n%s", resp.ToString(), err)
	}

	return &patron, nil
}

func (c *AccountsClient) DecodeTransactions(resp *Response) ([]*model.Transaction, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var txns []*model.Transaction
	if err := json.Unmarshal(wrapper.Data, &txns); err != nil {
		return nil, nil, fmt.Errorf("could not decode transaction list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return txns, metadata, nil
}
