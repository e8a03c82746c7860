package script

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// toStarlark converts a Go value to a Starlark value.
func toStarlark(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case uint64:
		return starlark.MakeUint64(val), nil
	case float64:
		return starlark.Float(val), nil
	case string:
		return starlark.String(val), nil
	case []any:
		elems := make([]starlark.Value, len(val))
		for i, item := range val {
			elem, err := toStarlark(item)
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, item := range val {
			elem, err := toStarlark(item)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), elem); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// fromStarlark converts a Starlark value to a Go value.
func fromStarlark(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer too large")
		}
		return i, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case *starlark.List:
		return fromStarlarkSeq(val.Len(), val.Index)
	case starlark.Tuple:
		return fromStarlarkSeq(val.Len(), val.Index)
	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			elem, err := fromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			out[string(key)] = elem
		}
		return out, nil
	case *starlarkstruct.Struct:
		out := make(map[string]any)
		for _, name := range val.AttrNames() {
			attr, err := val.Attr(name)
			if err != nil {
				continue
			}
			elem, err := fromStarlark(attr)
			if err != nil {
				return nil, err
			}
			out[name] = elem
		}
		return out, nil
	case *State:
		return val.Snapshot()
	default:
		return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
	}
}

func fromStarlarkSeq(n int, index func(int) starlark.Value) (any, error) {
	out := make([]any, n)
	for i := 0; i < n; i++ {
		elem, err := fromStarlark(index(i))
		if err != nil {
			return nil, err
		}
		out[i] = elem
	}
	return out, nil
}
