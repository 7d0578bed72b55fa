// Package shopify provides a client for the Shopify Admin GraphQL API,
// covering the product and inventory calls the catalog sync performs.
// Basic Usage sample:
//
//	Create a new client for a store
//	client := shopify.NewClient("example.myshopify.com", "shpat-token")
//
//	Push a product and keep the returned ids
//	refs, err := client.CreateProduct(ctx, &shopify.ProductInput{
//		Title: "1999 Base Set Charizard #4",
//		SKU:   "PKM-0004",
//		Price: 399.99,
//	})
//	if err != nil {
//		return err
//	}
//
// Failed calls carry an outcome classification (rate limited, transient
// or permanent) which callers read back with shopify.Classify to decide
// whether the call should be retried.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/slabworks/catalog-sync/e"
)

const (
	// DefaultAPIVersion the Admin API version requests are made against
	DefaultAPIVersion = "2024-10"
	// DefaultTimeout applied to each API call
	DefaultTimeout = 30 * time.Second

	ECode060101 = e.Code0601 + "01"
	ECode060102 = e.Code0601 + "02"
	ECode060103 = e.Code0601 + "03"
	ECode060104 = e.Code0601 + "04"
	ECode060105 = e.Code0601 + "05"
	ECode060106 = e.Code0601 + "06"
	ECode060107 = e.Code0601 + "07"
	ECode060108 = e.Code0601 + "08"
	ECode060109 = e.Code0601 + "09"
)

// Outcome classifications for a failed API call
const (
	OutcomeRateLimited = "rate_limited"
	OutcomeTransient   = "transient"
	OutcomePermanent   = "permanent"
)

// Error describes a failed API call, classified so the caller can
// decide whether the call is worth retrying
type Error struct {
	Outcome    string
	StatusCode int
	Msg        string
}

// Error implements the error interface
func (err *Error) Error() string {
	if err.StatusCode > 0 {
		return fmt.Sprintf("%s (status: %d, outcome: %s)",
			err.Msg, err.StatusCode, err.Outcome)
	}

	return fmt.Sprintf("%s (outcome: %s)", err.Msg, err.Outcome)
}

// Classify returns the outcome classification of an error returned by
// a client call. Unrecognized errors default to transient so they are
// retried rather than silently dropped
func Classify(err error) (outcome string) {
	if err == nil {
		return ""
	}

	var se *Error
	if ee := e.AsExtendedError(err); ee != nil {
		if ee.AsError(&se) {
			return se.Outcome
		}

		return OutcomeTransient
	}

	if errors.As(err, &se) {
		return se.Outcome
	}

	return OutcomeTransient
}

// gqlReq represents a GraphQL request
type gqlReq struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// gqlError a top level GraphQL error
type gqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// gqlRes the GraphQL response envelope
type gqlRes struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// userError a mutation level input error
type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// Client handles requests to a single store's Admin API
type Client struct {
	domain     string
	token      string
	version    string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a new client for the store
func NewClient(domain, token string) (c *Client) {
	return &Client{
		domain:  domain,
		token:   token,
		version: DefaultAPIVersion,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// SetVersion overrides the API version requests are made against
func (c *Client) SetVersion(version string) {
	c.version = version
}

// SetBaseURL overrides the service url, so tests can point the client
// at a local server
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// getServiceURL returns the full url to post the request to
func (c *Client) getServiceURL() string {
	if c.baseURL != "" {
		return c.baseURL
	}

	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.domain, c.version)
}

// send posts the GraphQL request and decodes the response data into
// the passed target, classifying transport and API failures
func (c *Client) send(ctx context.Context, query string,
	vars map[string]interface{}, data interface{}) (err error) {
	payload := new(bytes.Buffer)
	if err := json.NewEncoder(payload).Encode(&gqlReq{
		Query:     query,
		Variables: vars,
	}); err != nil {
		return e.W(err, ECode060101)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.getServiceURL(), payload)
	if err != nil {
		return e.W(err, ECode060102)
	}

	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("X-Shopify-Access-Token", c.token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return e.W(&Error{
			Outcome: OutcomeTransient,
			Msg:     err.Error(),
		}, ECode060103)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		return e.W(&Error{
			Outcome:    OutcomeRateLimited,
			StatusCode: res.StatusCode,
			Msg:        "too many requests",
		}, ECode060104)
	}

	if res.StatusCode >= http.StatusInternalServerError {
		return e.W(&Error{
			Outcome:    OutcomeTransient,
			StatusCode: res.StatusCode,
			Msg:        "server error",
		}, ECode060105)
	}

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return e.W(&Error{
			Outcome:    OutcomePermanent,
			StatusCode: res.StatusCode,
			Msg:        string(body),
		}, ECode060106)
	}

	gr := &gqlRes{}
	if err := json.NewDecoder(res.Body).Decode(gr); err != nil {
		return e.W(&Error{
			Outcome: OutcomeTransient,
			Msg:     err.Error(),
		}, ECode060107)
	}

	if len(gr.Errors) > 0 {
		return e.W(classifyGQLErrors(gr.Errors), ECode060108)
	}

	if data != nil {
		if err := json.Unmarshal(gr.Data, data); err != nil {
			return e.W(err, ECode060109)
		}
	}

	return nil
}

// classifyGQLErrors maps the top level GraphQL error list to a
// classified error. A throttle wins over anything else in the list
func classifyGQLErrors(errList []gqlError) (err *Error) {
	msgList := make([]string, 0, len(errList))

	for _, ge := range errList {
		if ge.Extensions.Code == "THROTTLED" {
			return &Error{
				Outcome: OutcomeRateLimited,
				Msg:     ge.Message,
			}
		}

		msgList = append(msgList, ge.Message)
	}

	return &Error{
		Outcome: OutcomeTransient,
		Msg:     strings.Join(msgList, "; "),
	}
}

// newUserErrorsError builds a permanent error from a mutation's user
// errors. These indicate the input itself was rejected, so retrying
// the same payload cannot succeed
func newUserErrorsError(ueList []userError) (err *Error) {
	msgList := make([]string, 0, len(ueList))

	for _, ue := range ueList {
		if len(ue.Field) > 0 {
			msgList = append(msgList,
				fmt.Sprintf("%s: %s", strings.Join(ue.Field, "."), ue.Message))
		} else {
			msgList = append(msgList, ue.Message)
		}
	}

	return &Error{
		Outcome: OutcomePermanent,
		Msg:     strings.Join(msgList, "; "),
	}
}
