package discord

import (
	"encoding/json"
	"fmt"

	"github.com/vetgate/internal/domain"
)

// wireInteraction is the raw webhook payload shape.
type wireInteraction struct {
	Type    int             `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	GuildID string          `json:"guild_id,omitempty"`
	Member  *struct {
		User wireUser `json:"user"`
	} `json:"member,omitempty"`
	User *wireUser `json:"user,omitempty"`
}

type wireUser struct {
	ID string `json:"id"`
}

type wireInteractionData struct {
	Name     string `json:"name,omitempty"`
	CustomID string `json:"custom_id,omitempty"`
	Options  []struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	} `json:"options,omitempty"`
	Components []wireComponent `json:"components,omitempty"`
}

type wireComponent struct {
	Type       int             `json:"type"`
	CustomID   string          `json:"custom_id,omitempty"`
	Value      string          `json:"value,omitempty"`
	Components []wireComponent `json:"components,omitempty"`
}

// ParseInteraction decodes a raw webhook body into the domain's tagged
// union. It is the only place the loosely-typed wire format is touched;
// everything downstream switches on Kind and reads named fields.
func ParseInteraction(raw []byte) (*domain.Interaction, error) {
	var wi wireInteraction
	if err := json.Unmarshal(raw, &wi); err != nil {
		return nil, fmt.Errorf("decode interaction: %w", domain.ErrBadRequest)
	}

	in := &domain.Interaction{GuildID: wi.GuildID}
	if wi.Member != nil {
		in.UserID = wi.Member.User.ID
	} else if wi.User != nil {
		in.UserID = wi.User.ID
	}

	switch wi.Type {
	case interactionPing:
		in.Kind = domain.KindPing
		return in, nil
	case interactionCommand:
		in.Kind = domain.KindCommand
	case interactionComponent:
		in.Kind = domain.KindComponent
	case interactionModalSubmit:
		in.Kind = domain.KindModalSubmit
	default:
		in.Kind = domain.KindUnknown
		return in, nil
	}

	var data wireInteractionData
	if len(wi.Data) > 0 {
		if err := json.Unmarshal(wi.Data, &data); err != nil {
			return nil, fmt.Errorf("decode interaction data: %w", domain.ErrBadRequest)
		}
	}

	in.CommandName = data.Name
	in.CustomID = data.CustomID
	for _, opt := range data.Options {
		// Option values may be strings or numbers on the wire; role ids
		// arrive as strings.
		var s string
		if err := json.Unmarshal(opt.Value, &s); err != nil {
			s = string(opt.Value)
		}
		in.Options = append(in.Options, domain.Field{Name: opt.Name, Value: s})
	}
	collectInputs(data.Components, &in.Fields)
	return in, nil
}

// collectInputs walks action rows and pulls out submitted text-input values
// in order.
func collectInputs(components []wireComponent, out *[]domain.Field) {
	for _, c := range components {
		if c.Type == ComponentTextInput && c.CustomID != "" {
			*out = append(*out, domain.Field{Name: c.CustomID, Value: c.Value})
			continue
		}
		if len(c.Components) > 0 {
			collectInputs(c.Components, out)
		}
	}
}
