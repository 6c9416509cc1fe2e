package service

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a rejected request.
type Kind string

const (
	KindMalformedRequest Kind = "MalformedRequest"
	KindMissingField     Kind = "MissingField"
	KindInvalidFieldType Kind = "InvalidFieldType"
)

// ValidationError is returned for client input that is rejected before the
// engine is invoked.
type ValidationError struct {
	Kind   Kind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// ParsePrompt extracts the prompt from a /generate request body. Checks run
// in order: valid JSON, "messages" present, "messages" a non-empty string.
// Any failure is a *ValidationError.
func ParsePrompt(body []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", &ValidationError{Kind: KindMalformedRequest, Reason: "Invalid JSON body"}
	}

	// A body that is not an object has no fields at all.
	obj, ok := doc.(map[string]any)
	if !ok {
		return "", &ValidationError{Kind: KindMissingField, Reason: "No messages provided"}
	}
	v, ok := obj["messages"]
	if !ok {
		return "", &ValidationError{Kind: KindMissingField, Reason: "No messages provided"}
	}

	prompt, ok := v.(string)
	if !ok {
		return "", &ValidationError{Kind: KindInvalidFieldType, Reason: "Messages must be a string"}
	}
	if prompt == "" {
		return "", &ValidationError{Kind: KindInvalidFieldType, Reason: "Messages must not be empty"}
	}
	return prompt, nil
}
