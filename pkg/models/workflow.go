package models

import "encoding/json"

// WorkflowDefinition is the hosted platform's document describing one
// automation unit. Only Name and Nodes are interpreted here; every other
// top-level field is opaque payload carried in Extra so documents survive
// round-tripping through the fixer untouched.
type WorkflowDefinition struct {
	Name        string          `json:"-"`
	Nodes       []*WorkflowNode `json:"-"`
	Connections map[string]any  `json:"-"`
	Settings    map[string]any  `json:"-"`
	Extra       map[string]any  `json:"-"`

	// An explicit JSON null decodes to a nil map; these keep the key from
	// being dropped on re-marshal.
	hasConnections bool
	hasSettings    bool
}

// NodeByName returns the node whose name matches exactly, or nil.
func (w *WorkflowDefinition) NodeByName(name string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node.Name == name {
			return node
		}
	}

	return nil
}

// Clone produces a full deep copy via a JSON round-trip, preserving all
// opaque payload. The receiver is never shared with the copy.
func (w *WorkflowDefinition) Clone() (*WorkflowDefinition, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}

	clone := &WorkflowDefinition{}
	if err := json.Unmarshal(data, clone); err != nil {
		return nil, err
	}

	return clone, nil
}

func (w *WorkflowDefinition) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*w = WorkflowDefinition{Extra: make(map[string]any)}

	for key, value := range raw {
		switch key {
		case "name":
			if err := json.Unmarshal(value, &w.Name); err != nil {
				return err
			}
		case "nodes":
			if err := json.Unmarshal(value, &w.Nodes); err != nil {
				return err
			}
		case "connections":
			w.hasConnections = true
			if err := json.Unmarshal(value, &w.Connections); err != nil {
				return err
			}
		case "settings":
			w.hasSettings = true
			if err := json.Unmarshal(value, &w.Settings); err != nil {
				return err
			}
		default:
			var passthrough any
			if err := json.Unmarshal(value, &passthrough); err != nil {
				return err
			}

			w.Extra[key] = passthrough
		}
	}

	return nil
}

func (w *WorkflowDefinition) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(w.Extra)+4)
	for key, value := range w.Extra {
		out[key] = value
	}

	out["name"] = w.Name
	out["nodes"] = w.Nodes

	if w.Connections != nil || w.hasConnections {
		out["connections"] = w.Connections
	}

	if w.Settings != nil || w.hasSettings {
		out["settings"] = w.Settings
	}

	return json.Marshal(out)
}

// WorkflowNode is one addressable step inside a WorkflowDefinition. It is
// an open, passthrough-heavy record: the fixer interprets Name, Type and
// Parameters, everything else (ids, positions, credentials, webhook ids,
// retry flags) rides along in Extra.
type WorkflowNode struct {
	Name       string         `json:"-"`
	Type       string         `json:"-"`
	Parameters map[string]any `json:"-"`
	Extra      map[string]any `json:"-"`

	hasParameters bool
}

func (n *WorkflowNode) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = WorkflowNode{Extra: make(map[string]any)}

	for key, value := range raw {
		switch key {
		case "name":
			if err := json.Unmarshal(value, &n.Name); err != nil {
				return err
			}
		case "type":
			if err := json.Unmarshal(value, &n.Type); err != nil {
				return err
			}
		case "parameters":
			n.hasParameters = true
			if err := json.Unmarshal(value, &n.Parameters); err != nil {
				return err
			}
		default:
			var passthrough any
			if err := json.Unmarshal(value, &passthrough); err != nil {
				return err
			}

			n.Extra[key] = passthrough
		}
	}

	return nil
}

func (n *WorkflowNode) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Extra)+3)
	for key, value := range n.Extra {
		out[key] = value
	}

	out["name"] = n.Name
	out["type"] = n.Type

	if n.Parameters != nil || n.hasParameters {
		out["parameters"] = n.Parameters
	}

	return json.Marshal(out)
}
