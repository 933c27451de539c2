package typecode

import "encoding/json"

type jsonMember struct {
	Name string    `json:"name"`
	Type *TypeCode `json:"type,omitempty"`
}

type jsonTypeCode struct {
	Kind    string       `json:"kind"`
	ID      string       `json:"id,omitempty"`
	Name    string       `json:"name,omitempty"`
	Length  int          `json:"length,omitempty"`
	Content *TypeCode    `json:"content,omitempty"`
	Members []jsonMember `json:"members,omitempty"`
}

// MarshalJSON renders the tree for inspection tooling.
func (tc *TypeCode) MarshalJSON() ([]byte, error) {
	view := jsonTypeCode{
		Kind:    tc.kind.String(),
		ID:      tc.id,
		Name:    tc.name,
		Length:  tc.length,
		Content: tc.content,
	}
	for _, m := range tc.members {
		view.Members = append(view.Members, jsonMember{Name: m.Name, Type: m.Type})
	}
	return json.Marshal(view)
}
