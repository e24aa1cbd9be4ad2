package subscan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// envelope is the common response wrapper of every Subscan endpoint.
type envelope struct {
	Code        int             `json:"code"`
	Message     string          `json:"message"`
	GeneratedAt int64           `json:"generated_at"`
	Data        json.RawMessage `json:"data"`
}

// APIError is a non-zero envelope code.
type APIError struct {
	Path    string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("subscan %s: code %d: %s", e.Path, e.Code, e.Message)
}

// HTTPError is a non-200 response.
type HTTPError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("subscan %s: http status %d: %s", e.Path, e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatus() int {
	return e.StatusCode
}

type EventsQuery struct {
	EventID string `json:"event_id"`
	Module  string `json:"module,omitempty"`
	Page    int    `json:"page"`
	Row     int    `json:"row"`
}

type EventsPage struct {
	Count  int            `json:"count"`
	Events []EventSummary `json:"events"`
}

type EventSummary struct {
	EventIndex     string `json:"event_index"`
	BlockNum       int64  `json:"block_num"`
	ExtrinsicIndex string `json:"extrinsic_index"`
	ModuleID       string `json:"module_id"`
	EventID        string `json:"event_id"`
	BlockTimestamp int64  `json:"block_timestamp"`
}

type Event struct {
	EventIndex string       `json:"event_index"`
	BlockNum   int64        `json:"block_num"`
	ModuleID   string       `json:"module_id"`
	EventID    string       `json:"event_id"`
	Params     []EventParam `json:"params"`
}

type EventParam struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	TypeName string          `json:"type_name"`
	Value    json.RawMessage `json:"value"`
}

// StringValue returns the param value as a string. Account values are
// accepted either as a plain string or as a MultiAddress {"Id": "..."}.
func (p EventParam) StringValue() (string, error) {
	var s string
	if err := json.Unmarshal(p.Value, &s); err == nil {
		return s, nil
	}

	var multi map[string]json.RawMessage
	if err := json.Unmarshal(p.Value, &multi); err == nil {
		for key, raw := range multi {
			if !strings.EqualFold(key, "id") {
				continue
			}
			if err := json.Unmarshal(raw, &s); err == nil {
				return s, nil
			}
		}
	}
	return "", fmt.Errorf("param %s: unsupported value %s", p.Name, string(p.Value))
}
