package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Data is the success payload of a query: the top-level fields of the
// response's data object, left undecoded.
type Data map[string]json.RawMessage

// Location points at the part of a query a GraphQL error refers to.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is one entry of the response's errors list.
type GraphQLError struct {
	Message   string     `json:"message"`
	Path      []any      `json:"path,omitempty"`
	Locations []Location `json:"locations,omitempty"`
}

// request is the POST body sent to the explorer.
type request struct {
	Query string `json:"query"`
}

// envelope is the decoded response. It is only built by decodeEnvelope.
type envelope struct {
	statusCode int
	data       Data
	errors     []GraphQLError
}

// decodeEnvelope consumes and closes the response body. A status outside
// 200-299 is reported before the body is looked at.
func decodeEnvelope(resp *http.Response) (*envelope, error) {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &BadResponseCodeError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}

	// An empty body carries no data; result reports it as an empty-data QueryError.
	if len(bytes.TrimSpace(raw)) == 0 {
		return &envelope{statusCode: resp.StatusCode}, nil
	}

	var body struct {
		Data   Data           `json:"data"`
		Errors []GraphQLError `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}

	return &envelope{
		statusCode: resp.StatusCode,
		data:       body.Data,
		errors:     body.Errors,
	}, nil
}

// result classifies a decoded envelope into its data payload or a QueryError.
func (e *envelope) result() (Data, error) {
	if len(e.errors) > 0 {
		messages := make([]string, 0, len(e.errors))
		for _, gqlErr := range e.errors {
			messages = append(messages, gqlErr.Message)
		}
		return nil, &QueryError{Messages: messages}
	}

	if len(e.data) == 0 {
		return nil, &QueryError{Messages: []string{emptyDataMessage}, Err: ErrEmptyData}
	}

	return e.data, nil
}

// String is used in debug logging.
func (e *envelope) String() string {
	return fmt.Sprintf("status=%d fields=%d errors=%d", e.statusCode, len(e.data), len(e.errors))
}
