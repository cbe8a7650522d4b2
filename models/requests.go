package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

var jsonNull = []byte("null")

// OptionalString tracks whether a JSON string field was sent, sent as null, or omitted.
// Values of any other JSON type mark the field as Invalid instead of failing the decode.
type OptionalString struct {
	Set     bool
	Null    bool
	Invalid bool
	Value   string
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		o.Null = true
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		o.Invalid = true
	}
	return nil
}

// Ptr returns nil for an omitted or null field, the value otherwise
func (o OptionalString) Ptr() *string {
	if !o.Set || o.Null || o.Invalid {
		return nil
	}
	v := o.Value
	return &v
}

// OptionalConversationID accepts a conversation id sent as a JSON number or a numeric string.
// A null value is treated the same as an omitted one.
type OptionalConversationID struct {
	Set bool
	Raw string
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalConversationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		return nil
	}
	o.Set = true
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Raw = s
		return nil
	}
	o.Raw = string(data)
	return nil
}

// Parse converts the raw value into a ConversationID
func (o OptionalConversationID) Parse() (ConversationID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(o.Raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return ConversationID(n), nil
}

// CreateConversationRequest is the request body for creating a conversation
type CreateConversationRequest struct {
	FirebaseUID string  `json:"firebaseUid" binding:"required"`
	Title       *string `json:"title"`
}

// CreateConversationResponse is returned after a conversation is created
type CreateConversationResponse struct {
	ConversationID ConversationID `json:"conversationId"`
}

// AppendMessageRequest is the request body for adding a message to a conversation
type AppendMessageRequest struct {
	FirebaseUID string  `json:"firebaseUid" binding:"required"`
	Content     *string `json:"content" binding:"required"`
	IsFromUser  *bool   `json:"isFromUser"`
}

// UpdateConversationSummaryRequest is the request body for rewriting a conversation summary
type UpdateConversationSummaryRequest struct {
	FirebaseUID string  `json:"firebaseUid" binding:"required"`
	Summary     *string `json:"summary" binding:"required"`
}

// UpsertSummaryRequest is the request body for creating or refreshing a summary
type UpsertSummaryRequest struct {
	FirebaseUID    string                 `json:"firebaseUid" binding:"required"`
	Summary        string                 `json:"summary" binding:"required"`
	ConversationID OptionalConversationID `json:"conversationId"`
	Context        OptionalString         `json:"context"`
}

// UpdateSummaryRequest is the request body for patching a summary
type UpdateSummaryRequest struct {
	FirebaseUID string         `json:"firebaseUid" binding:"required"`
	Summary     OptionalString `json:"summary"`
	Context     OptionalString `json:"context"`
}

// SuccessResponse is returned by delete endpoints
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
