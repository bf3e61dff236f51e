package duckdb

import (
	"fmt"
	"strings"
	"time"
)

// InterpolateQuery substitutes args into the placeholders of query for
// debug logging. The output is valid SQL that can be pasted into the duckdb
// shell. Placeholders without a matching argument are left as-is.
func InterpolateQuery(query string, args []any) string {
	var out strings.Builder
	out.Grow(len(query))

	next := 0
	for _, r := range query {
		switch {
		case r == '?' && next < len(args):
			out.WriteString(literal(args[next]))
			next++
		case r == '\n':
		case r == '\t':
			out.WriteByte(' ')
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

func literal(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%v", v)
	case time.Time:
		return "'" + v.UTC().Format(time.RFC3339Nano) + "'"
	default:
		return fmt.Sprintf("'%v'", v)
	}
}
