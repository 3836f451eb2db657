package domain

// InteractionKind classifies an inbound webhook callback.
type InteractionKind int

const (
	KindUnknown InteractionKind = iota
	KindPing
	KindCommand
	KindComponent
	KindModalSubmit
)

func (k InteractionKind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindCommand:
		return "command"
	case KindComponent:
		return "component"
	case KindModalSubmit:
		return "modal-submit"
	default:
		return "unknown"
	}
}

// Field is a named value carried by an interaction: a slash-command option
// or a modal text input.
type Field struct {
	Name  string
	Value string
}

// Interaction is one inbound callback, decoded once at the boundary.
// It is ephemeral — it exists only for the duration of request handling.
// All cross-request workflow context travels in CustomID.
type Interaction struct {
	Kind        InteractionKind
	CommandName string  // set for KindCommand
	CustomID    string  // set for KindComponent and KindModalSubmit
	Options     []Field // slash-command options
	Fields      []Field // modal text inputs, in submission order
	UserID      string
	GuildID     string
}

// Option returns the named slash-command option value, or "".
func (i *Interaction) Option(name string) string {
	for _, f := range i.Options {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Field returns the named modal input value, or "".
func (i *Interaction) Field(name string) string {
	for _, f := range i.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}
