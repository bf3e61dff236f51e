package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	prettyjson "github.com/hokaccha/go-prettyjson"
)

// OutputFormat represents the desired output format.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
)

// SupportedFormats lists every format NewFormatter accepts.
var SupportedFormats = []OutputFormat{FormatTable, FormatJSON}

// Formatter writes command results.
type Formatter interface {
	Format(data any, writer io.Writer) error
}

// NewFormatter creates a new Formatter for the given format. JSON is
// colorized when color output is enabled, which fatih/color decides from
// the terminal and NO_COLOR.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatTable:
		return &TableFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{Color: !color.NoColor}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// JSONFormatter formats data as indented JSON.
type JSONFormatter struct {
	Color bool
}

func (f *JSONFormatter) Format(data any, writer io.Writer) error {
	if f.Color {
		out, err := prettyjson.Marshal(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(writer, string(out))
		return err
	}

	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// TableFormatter formats a slice of structs as a table. Columns are the
// fields with a `header` tag; `header:"-"` hides a field.
type TableFormatter struct{}

func (f *TableFormatter) Format(data any, writer io.Writer) error {
	val := reflect.ValueOf(data)
	if val.Kind() != reflect.Slice {
		return errors.New("data must be a slice")
	}
	if val.Len() == 0 {
		return nil
	}

	elemType := val.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}
	columns := tableColumns(elemType)

	w := tabwriter.NewWriter(writer, 0, 0, 3, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.header
	}
	if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
		return err
	}

	for i := range val.Len() {
		row := val.Index(i)
		if row.Kind() == reflect.Ptr {
			row = row.Elem()
		}
		cells := make([]string, len(columns))
		for j, c := range columns {
			cells[j] = cell(row.Field(c.index).Interface())
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

type column struct {
	header string
	index  int
}

func tableColumns(t reflect.Type) []column {
	var columns []column
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("header")
		if tag != "" && tag != "-" {
			columns = append(columns, column{header: tag, index: i})
		}
	}
	return columns
}

func cell(v any) string {
	switch val := v.(type) {
	case time.Time:
		return val.Local().Format(time.DateTime)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case string:
		if val == "" {
			return "-"
		}
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
