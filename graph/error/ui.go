package grapherror

import (
	"fmt"
	"time"
)

var defaultMessages = map[Category]string{
	CategoryDataset:    "Dataset could not be loaded - check the file and its schema_version",
	CategoryProjection: "View could not be projected - the previous layout was kept",
	CategoryTransport:  "Connection error - attempting to reconnect...",
	CategoryConfig:     "Configuration rejected - previous settings remain active",
	CategoryInternal:   "An internal error occurred - please try again",
}

// ToUIMessage returns the message a renderer should display
func (e *GraphError) ToUIMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	if msg, ok := defaultMessages[e.Category]; ok {
		return msg
	}
	return "An error occurred"
}

// ToFrame formats the error as the payload of an "error" frame
func (e *GraphError) ToFrame() map[string]string {
	frame := map[string]string{
		"error":       e.Error(),
		"category":    string(e.Category),
		"description": e.ToUIMessage(),
		"timestamp":   e.Timestamp.Format(time.RFC3339),
	}

	if e.Subcategory != "" {
		frame["subcategory"] = e.Subcategory
	}
	if len(e.Context) > 0 {
		frame["context"] = fmt.Sprintf("%v", e.Context)
	}

	return frame
}

// ToLogFields converts the error to key-value pairs for logger.Errorw
func (e *GraphError) ToLogFields() []interface{} {
	fields := []interface{}{
		"error_category", e.Category,
		"error_message", e.Error(),
		"user_message", e.UserMessage,
	}

	if e.Subcategory != "" {
		fields = append(fields, "error_subcategory", e.Subcategory)
	}
	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

func (e *GraphError) IsCategory(cat Category) bool {
	return e.Category == cat
}

func (e *GraphError) IsSubcategory(sub string) bool {
	return e.Subcategory == sub
}
