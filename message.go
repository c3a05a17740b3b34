package imagechat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type textKind uint8

const (
	textUndefined textKind = iota
	textNull
	textString
	textNumber
)

// MessageText is the caller-supplied text of a chat request. It distinguishes
// an absent value (the zero value) from an explicit null, a string and a number,
// because only the absent case is an input error.
type MessageText struct {
	kind textKind
	str  string
	num  float64
}

// TextOf returns a MessageText holding s.
func TextOf(s string) MessageText {
	return MessageText{kind: textString, str: s}
}

// NullText returns an explicit null MessageText.
func NullText() MessageText {
	return MessageText{kind: textNull}
}

// NumberText returns a MessageText holding a number.
func NumberText(f float64) MessageText {
	return MessageText{kind: textNumber, num: f}
}

// IsUndefined reports whether no text was supplied at all.
func (t MessageText) IsUndefined() bool {
	return t.kind == textUndefined
}

// String coerces the value to text: null becomes "null" and numbers use their
// shortest decimal form. An undefined value coerces to "".
func (t MessageText) String() string {
	switch t.kind {
	case textNull:
		return "null"
	case textString:
		return t.str
	case textNumber:
		return strconv.FormatFloat(t.num, 'f', -1, 64)
	default:
		return ""
	}
}

// UnmarshalJSON maps JSON null, strings and numbers onto MessageText.
// A field that is absent from the document stays undefined.
func (t *MessageText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = NullText()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TextOf(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("message text must be a string, number or null: %w", err)
	}
	*t = NumberText(f)
	return nil
}

// MarshalJSON renders undefined and null as null, numbers as numbers.
func (t MessageText) MarshalJSON() ([]byte, error) {
	switch t.kind {
	case textString:
		return json.Marshal(t.str)
	case textNumber:
		return json.Marshal(t.num)
	default:
		return []byte("null"), nil
	}
}

// ImageRef is an attached or produced image. EncodedData is base64 and is
// passed through untouched; MIMEType is optional.
type ImageRef struct {
	EncodedData string `json:"encoded_data"`
	MIMEType    string `json:"mime_type,omitempty"`
}

// Message is one side of a chat exchange.
type Message struct {
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Image     *GenerationRecord `json:"image,omitempty"`
	Images    []ImageRef        `json:"images,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// ChatRequest is the input of ChatService.ProcessMessage. History is optional
// caller-held context; nothing is retained between calls.
type ChatRequest struct {
	Text    MessageText `json:"text"`
	Images  []ImageRef  `json:"images,omitempty"`
	History []Message   `json:"history,omitempty"`
}

// ChatResult pairs the echoed user message with the assistant reply.
// The assistant message always has non-empty Content or a non-nil Image.
type ChatResult struct {
	UserMessage      Message `json:"user_message"`
	AssistantMessage Message `json:"assistant_message"`
}
