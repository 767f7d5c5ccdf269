package check

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Metric contains a single performance value.
// Value, thresholds, min and max accept numbers, strings and fmt.Stringer (ex.: threshold ranges).
type Metric struct {
	Name     string
	Unit     string
	Value    interface{}
	Warning  interface{}
	Critical interface{}
	Min      interface{}
	Max      interface{}
}

func (m *Metric) String() string {
	var res bytes.Buffer

	name := m.Name
	if strings.ContainsAny(name, "'= ") {
		name = "'" + name + "'"
	}
	res.WriteString(fmt.Sprintf("%s=%s%s", name, formatPerfValue(m.Value), m.Unit))

	for _, field := range []interface{}{m.Warning, m.Critical, m.Min, m.Max} {
		res.WriteString(";")
		res.WriteString(formatPerfValue(field))
	}

	resStr := res.String()
	// strip trailing semicolons
	for strings.HasSuffix(resStr, ";") {
		resStr = strings.TrimSuffix(resStr, ";")
	}

	return resStr
}

// formatPerfValue uses %d for integers and %f for floats
func formatPerfValue(raw interface{}) string {
	switch val := raw.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', 6, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', 6, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case string:
		return val
	case fmt.Stringer:
		// typed nil pointers end up here as well
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return ""
		}

		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
