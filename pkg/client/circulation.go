package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"circdesk/pkg/model"
)

// CirculationClient is a typed client for the circulation desk API. Desk
// operations require an operator id, passed on every mutating call.
type CirculationClient struct {
	httpClient *HttpClient
}

func NewCirculationClient(baseUrl string) *CirculationClient {
	return &CirculationClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *CirculationClient) operatorHeaders(operator string) map[string]string {
	return map[string]string{"X-Operator-Id": operator}
}

func (c *CirculationClient) Checkout(operator string, body any) (*Response, error) {
	return c.httpClient.POSTWithHeaders("/api/v1/circulation/checkout", body, c.operatorHeaders(operator))
}

func (c *CirculationClient) Return(operator string, body any) (*Response, error) {
	return c.httpClient.POSTWithHeaders("/api/v1/circulation/return", body, c.operatorHeaders(operator))
}

func (c *CirculationClient) PlaceHold(operator string, body any) (*Response, error) {
	return c.httpClient.POSTWithHeaders("/api/v1/circulation/holds", body, c.operatorHeaders(operator))
}

func (c *CirculationClient) Renew(operator string, body any) (*Response, error) {
	return c.httpClient.POSTWithHeaders("/api/v1/circulation/renew", body, c.operatorHeaders(operator))
}

func (c *CirculationClient) MarkLost(operator string, body any) (*Response, error) {
	return c.httpClient.POSTWithHeaders("/api/v1/circulation/lost", body, c.operatorHeaders(operator))
}

func (c *CirculationClient) GetItem(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/circulation/items/id/" + url.PathEscape(id))
}

func (c *CirculationClient) GetItemByBarcode(barcode string) (*Response, error) {
	return c.httpClient.GET("/api/v1/circulation/items/barcode/" + url.PathEscape(barcode))
}

func (c *CirculationClient) GetLoans(limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/circulation/loans?limit=%d&offset=%d", limit, offset)
	return c.httpClient.GET(path)
}

func (c *CirculationClient) GetOverdueLoans(limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/circulation/loans/overdue?limit=%d&offset=%d", limit, offset)
	return c.httpClient.GET(path)
}

func (c *CirculationClient) DecodeLoan(resp *Response) (*model.Loan, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode loan wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var loan model.Loan
	if err := json.Unmarshal(wrapper.Data, &loan); err != nil {
		return nil, fmt.Errorf("could not decode loan json:\n%+v\n%s", resp.ToString(), err)
	}

	return &loan, nil
}

func (c *CirculationClient) DecodeLoans(resp *Response) ([]*model.Loan, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var loans []*model.Loan
	if err := json.Unmarshal(wrapper.Data, &loans); err != nil {
		return nil, nil, fmt.Errorf("could not decode loan list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return loans, metadata, nil
}

func (c *CirculationClient) DecodeItem(resp *Response) (*model.Item, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode item wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var item model.Item
	if err := json.Unmarshal(wrapper.Data, &item); err != nil {
		return nil, fmt.Errorf("could not decode item json:\n%+v\n%s", resp.ToString(), err)
	}

	return &item, nil
}
