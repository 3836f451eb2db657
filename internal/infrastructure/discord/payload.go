package discord

// Interaction wire constants. The numeric values are fixed by the platform
// protocol.
const (
	interactionPing        = 1
	interactionCommand     = 2
	interactionComponent   = 3
	interactionModalSubmit = 5

	ResponsePong          = 1
	ResponseMessage       = 4
	ResponseUpdateMessage = 7
	ResponseModal         = 9

	ComponentActionRow = 1
	ComponentButton    = 2
	ComponentTextInput = 4

	ButtonPrimary = 1
	ButtonLink    = 5

	textInputShort = 1

	// FlagEphemeral makes a message visible only to the invoking user.
	FlagEphemeral = 1 << 6
)

// Component is a message component: action row, button, or modal text input.
type Component struct {
	Type       int         `json:"type"`
	CustomID   string      `json:"custom_id,omitempty"`
	Style      int         `json:"style,omitempty"`
	Label      string      `json:"label,omitempty"`
	URL        string      `json:"url,omitempty"`
	Value      string      `json:"value,omitempty"`
	Required   bool        `json:"required,omitempty"`
	MinLength  *int        `json:"min_length,omitempty"`
	MaxLength  *int        `json:"max_length,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// Response is an interaction-response payload sent back within the webhook's
// response window.
type Response struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData is the data field of an interaction response.
type ResponseData struct {
	Content    string      `json:"content,omitempty"`
	Components []Component `json:"components"`
	Flags      int         `json:"flags,omitempty"`
	// For modal responses:
	CustomID string `json:"custom_id,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Pong answers a ping callback.
func Pong() *Response {
	return &Response{Type: ResponsePong}
}

// Message builds a new-message response.
func Message(content string, components ...Component) *Response {
	return &Response{
		Type: ResponseMessage,
		Data: &ResponseData{Content: content, Components: nonNil(components)},
	}
}

// EphemeralMessage builds a new-message response visible only to the caller.
func EphemeralMessage(content string, components ...Component) *Response {
	return &Response{
		Type: ResponseMessage,
		Data: &ResponseData{Content: content, Components: nonNil(components), Flags: FlagEphemeral},
	}
}

// UpdateMessage edits the message the interacted component lives on instead
// of posting a new one. An empty components list clears all interactive
// elements from the message.
func UpdateMessage(content string, components ...Component) *Response {
	return &Response{
		Type: ResponseUpdateMessage,
		Data: &ResponseData{Content: content, Components: nonNil(components)},
	}
}

// nonNil keeps the components field serializing as [] rather than null.
func nonNil(components []Component) []Component {
	if components == nil {
		return []Component{}
	}
	return components
}

// Modal builds a show-modal response. Inputs are wrapped in action rows as
// the protocol requires.
func Modal(customID, title string, inputs ...Component) *Response {
	rows := make([]Component, 0, len(inputs))
	for _, in := range inputs {
		if in.Type == ComponentActionRow {
			rows = append(rows, in)
		} else {
			rows = append(rows, ActionRow(in))
		}
	}
	return &Response{
		Type: ResponseModal,
		Data: &ResponseData{CustomID: customID, Title: title, Components: rows},
	}
}

// ActionRow wraps components in an action row.
func ActionRow(components ...Component) Component {
	return Component{Type: ComponentActionRow, Components: components}
}

// Button creates a clickable button whose CustomID is echoed back on the
// next callback.
func Button(customID, label string, style int) Component {
	return Component{Type: ComponentButton, CustomID: customID, Label: label, Style: style}
}

// LinkButton creates a button that opens a URL instead of firing a callback.
func LinkButton(url, label string) Component {
	return Component{Type: ComponentButton, Label: label, Style: ButtonLink, URL: url}
}

// TextInput creates a single-line text input for use in modals.
func TextInput(customID, label string, required bool) Component {
	return Component{
		Type:     ComponentTextInput,
		CustomID: customID,
		Label:    label,
		Style:    textInputShort,
		Required: required,
	}
}
