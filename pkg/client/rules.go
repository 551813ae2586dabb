package client

import (
	"encoding/json"
	"fmt"

	"circdesk/pkg/model"
)

type RulesClient struct {
	httpClient *HttpClient
}

func NewRulesClient(baseUrl string) *RulesClient {
	return &RulesClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *RulesClient) GetAll() (*Response, error) {
	return c.httpClient.GET("/api/v1/rules")
}

func (c *RulesClient) ReplaceAll(operator string, body any) (*Response, error) {
	headers := map[string]string{"X-Operator-Id": operator}
	return c.httpClient.PUTWithHeaders("/api/v1/rules", body, headers)
}

func (c *RulesClient) DecodeRules(resp *Response) ([]*model.RuleEntry, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode rules wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var rules []*model.RuleEntry
	if err := json.Unmarshal(wrapper.Data, &rules); err != nil {
		return nil, fmt.Errorf("could not decode rules json:\n%+v\n%s", resp.ToString(), err)
	}

	return rules, nil
}
