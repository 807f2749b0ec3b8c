// Package serialize implements Container disk I/O: a line-oriented-in-
// spirit, kind-tagged YAML encoding that round-trips scalars, lists,
// mappings and numeric arrays while preserving Container insertion
// order.
//
// Built on gopkg.in/yaml.v3, with an explicit ordered-entry-list wire
// shape rather than a plain Go map, since `map[string]any` loses key
// order on marshal/unmarshal and Container iteration must stay in
// insertion order.
package serialize

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ovitrac/pizza3go/internal/numarray"
	"github.com/ovitrac/pizza3go/internal/value"
	"github.com/ovitrac/pizza3go/pkg/param"
)

// entry is one key/value pair on the wire, explicitly kind-tagged so
// Read can reconstruct the exact value.Value subtype Write saw,
// rather than guessing from YAML's own (much coarser) scalar typing.
type entry struct {
	Key   string `yaml:"key"`
	Kind  string `yaml:"kind"`
	Value any    `yaml:"value,omitempty"`
}

type document struct {
	Entries []entry `yaml:"entries"`
}

// arrayWire is the wire shape for a *numarray.Array: shape plus
// flattened row-major data.
type arrayWire struct {
	Shape []int     `yaml:"shape"`
	Data  []float64 `yaml:"data"`
}

// Write encodes c to YAML, one entry per Container key in insertion
// order.
func Write(c *param.Container) ([]byte, error) {
	doc := document{}
	for _, k := range c.Keys() {
		v, err := c.Get(k)
		if err != nil {
			return nil, err
		}
		kind, wire, err := toWire(v)
		if err != nil {
			return nil, fmt.Errorf("serialize: key %q: %w", k, err)
		}
		doc.Entries = append(doc.Entries, entry{Key: k, Kind: kind, Value: wire})
	}
	return yaml.Marshal(doc)
}

// Read decodes YAML produced by Write back into a Container,
// preserving entry order.
func Read(data []byte) (*param.Container, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	c := param.New()
	for _, e := range doc.Entries {
		v, err := fromWire(e.Kind, e.Value)
		if err != nil {
			return nil, fmt.Errorf("serialize: key %q: %w", e.Key, err)
		}
		if err := c.Set(e.Key, v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func toWire(v value.Value) (string, any, error) {
	switch t := v.(type) {
	case value.Int:
		return "int", int64(t), nil
	case value.Float:
		return "float", float64(t), nil
	case value.Str:
		return "str", string(t), nil
	case value.Bool:
		return "bool", bool(t), nil
	case value.Nil:
		return "nil", nil, nil
	case value.List:
		items := make([]any, len(t))
		for i, el := range t {
			_, w, err := toWire(el)
			if err != nil {
				return "", nil, err
			}
			items[i] = w
		}
		return "list", items, nil
	case value.Tuple:
		items := make([]any, len(t))
		for i, el := range t {
			_, w, err := toWire(el)
			if err != nil {
				return "", nil, err
			}
			items[i] = w
		}
		return "tuple", items, nil
	case *value.Mapping:
		var sub []entry
		for _, k := range t.Keys() {
			mv, _ := t.Get(k)
			kind, w, err := toWire(mv)
			if err != nil {
				return "", nil, err
			}
			sub = append(sub, entry{Key: k, Kind: kind, Value: w})
		}
		return "mapping", sub, nil
	case *numarray.Array:
		return "array", arrayWire{Shape: t.Shape(), Data: t.Data()}, nil
	case value.ErrorValue:
		return "error", t.Message, nil
	default:
		return "", nil, fmt.Errorf("unsupported value kind %T", v)
	}
}

func fromWire(kind string, raw any) (value.Value, error) {
	switch kind {
	case "int":
		return value.Int(toInt64(raw)), nil
	case "float":
		return value.Float(toFloat64(raw)), nil
	case "str":
		s, _ := raw.(string)
		return value.Str(s), nil
	case "bool":
		b, _ := raw.(bool)
		return value.Bool(b), nil
	case "nil":
		return value.Nil{}, nil
	case "list", "tuple":
		items, err := toAnySlice(raw)
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, len(items))
		for i, it := range items {
			v, err := wireItemToValue(it)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		if kind == "tuple" {
			return value.Tuple(out), nil
		}
		return value.List(out), nil
	case "mapping":
		entries, err := toEntrySlice(raw)
		if err != nil {
			return nil, err
		}
		m := value.NewMapping()
		for _, e := range entries {
			v, err := fromWire(e.Kind, e.Value)
			if err != nil {
				return nil, err
			}
			m.Set(e.Key, v)
		}
		return m, nil
	case "array":
		aw, err := toArrayWire(raw)
		if err != nil {
			return nil, err
		}
		return numarray.New(aw.Shape, aw.Data), nil
	case "error":
		msg, _ := raw.(string)
		return value.ErrorValue{Message: msg}, nil
	default:
		return nil, fmt.Errorf("unknown wire kind %q", kind)
	}
}

// wireItemToValue reconstructs one list/tuple element. Elements are
// stored as their raw wire value without a per-element kind tag
// (unlike top-level Container entries and mapping entries), so the Go
// dynamic type of the decoded YAML node is used to infer
// int/float/string/bool/nil, and a nested sequence decodes as a List
// (a nested tuple therefore comes back as a List). Mapping and array
// elements inside a list or tuple are not decoded: Read fails on them.
func wireItemToValue(raw any) (value.Value, error) {
	switch r := raw.(type) {
	case int:
		return value.Int(int64(r)), nil
	case int64:
		return value.Int(r), nil
	case float64:
		return value.Float(r), nil
	case string:
		return value.Str(r), nil
	case bool:
		return value.Bool(r), nil
	case nil:
		return value.Nil{}, nil
	case []any:
		out := make([]value.Value, len(r))
		for i, it := range r {
			v, err := wireItemToValue(it)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return value.List(out), nil
	default:
		return nil, fmt.Errorf("unsupported list element type %T", raw)
	}
}

func toInt64(raw any) int64 {
	switch r := raw.(type) {
	case int:
		return int64(r)
	case int64:
		return r
	case float64:
		return int64(r)
	default:
		return 0
	}
}

func toFloat64(raw any) float64 {
	switch r := raw.(type) {
	case float64:
		return r
	case int:
		return float64(r)
	case int64:
		return float64(r)
	default:
		return 0
	}
}

func toAnySlice(raw any) ([]any, error) {
	s, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", raw)
	}
	return s, nil
}

// toEntrySlice re-marshals/unmarshals a generic YAML node back into
// []entry; yaml.v3 decodes nested struct slices stored as `any` into
// []any-of-map[string]any rather than []entry directly, so this
// round-trips through the library's own encoder once more.
func toEntrySlice(raw any) ([]entry, error) {
	blob, err := yaml.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var entries []entry
	if err := yaml.Unmarshal(blob, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func toArrayWire(raw any) (arrayWire, error) {
	blob, err := yaml.Marshal(raw)
	if err != nil {
		return arrayWire{}, err
	}
	var aw arrayWire
	if err := yaml.Unmarshal(blob, &aw); err != nil {
		return arrayWire{}, err
	}
	return aw, nil
}
