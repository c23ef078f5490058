// Package fulfillment defines the wire format exchanged with the conversational
// telephony gateway: the webhook request it sends and the fulfillment envelope
// it expects back.
//
// Only queryResult.queryText influences behavior. The remaining fields the
// gateway sends (response id, session, language, intent) are decoded leniently
// so they can be attached to logs, and a bad value in any of them never fails
// a request.
package fulfillment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMalformedRequest is returned when the body is empty, is not JSON,
	// or is JSON but not an object.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrMissingQuery is returned when the body is a JSON object but carries
	// no usable queryResult.queryText.
	ErrMissingQuery = errors.New("missing query text")
)

// Request is the decoded subset of a gateway webhook call.
type Request struct {
	// QueryText is the caller's utterance, trimmed and guaranteed non-empty.
	QueryText string

	ResponseID   string
	Session      string
	LanguageCode string
	Intent       string
}

// Decode turns a raw webhook body into a Request. Every failure wraps either
// ErrMalformedRequest or ErrMissingQuery, so callers can branch with errors.Is.
func Decode(data []byte) (*Request, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedRequest)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	// A literal null decodes into a nil map without error.
	if body == nil {
		return nil, fmt.Errorf("%w: body is not an object", ErrMalformedRequest)
	}

	req := &Request{
		ResponseID: lenientString(body["responseId"]),
		Session:    lenientString(body["session"]),
	}

	rawResult, ok := body["queryResult"]
	if !ok {
		return nil, fmt.Errorf("%w: queryResult absent", ErrMissingQuery)
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(rawResult, &result); err != nil || result == nil {
		return nil, fmt.Errorf("%w: queryResult is not an object", ErrMissingQuery)
	}

	rawText, ok := result["queryText"]
	if !ok {
		return nil, fmt.Errorf("%w: queryText absent", ErrMissingQuery)
	}

	var text string
	if err := json.Unmarshal(rawText, &text); err != nil {
		return nil, fmt.Errorf("%w: queryText is not a string", ErrMissingQuery)
	}

	req.QueryText = strings.TrimSpace(text)
	if req.QueryText == "" {
		return nil, fmt.Errorf("%w: queryText is empty", ErrMissingQuery)
	}

	req.LanguageCode = lenientString(result["languageCode"])
	if rawIntent, ok := result["intent"]; ok {
		var intent struct {
			DisplayName string `json:"displayName"`
		}
		if json.Unmarshal(rawIntent, &intent) == nil {
			req.Intent = intent.DisplayName
		}
	}

	return req, nil
}

func lenientString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// Text holds the speakable strings of one message.
type Text struct {
	Text []string `json:"text"`
}

// Message is a single entry of the fulfillment response.
type Message struct {
	Text Text `json:"text"`
}

// Response lists the messages the gateway should speak.
type Response struct {
	Messages []Message `json:"messages"`
}

// Envelope is the top-level body returned to the gateway.
type Envelope struct {
	FulfillmentResponse Response `json:"fulfillment_response"`
}

// NewEnvelope wraps text into one message holding a one-element list.
func NewEnvelope(text string) *Envelope {
	return &Envelope{
		FulfillmentResponse: Response{
			Messages: []Message{
				{Text: Text{Text: []string{text}}},
			},
		},
	}
}

// FirstText returns messages[0].text.text[0], or "" if the envelope is empty.
func (e *Envelope) FirstText() string {
	if e == nil || len(e.FulfillmentResponse.Messages) == 0 {
		return ""
	}
	texts := e.FulfillmentResponse.Messages[0].Text.Text
	if len(texts) == 0 {
		return ""
	}
	return texts[0]
}

// Write encodes env as JSON with the given status code. HTML escaping is
// disabled so the text reaches the gateway byte for byte.
func Write(w http.ResponseWriter, status int, env *Envelope) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(env)
}
