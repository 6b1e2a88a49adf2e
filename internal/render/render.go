// Package render serializes decoded quiz data.
//
// FormatJS and FormatXML reproduce the two output shapes of the legacy
// authoring-tool converters byte for byte and keep the Latin-1 bytes of the
// input. The data formats (JSON, YAML, TOML) are UTF-8.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/errors"
)

type Format string

const (
	FormatJS   Format = "js"
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var formats = []Format{FormatJS, FormatXML, FormatJSON, FormatYAML, FormatTOML}

// Formats lists the supported formats.
func Formats() []Format {
	return append([]Format(nil), formats...)
}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.CodeInvalidArgument,
		errors.WithMessagef("unsupported format %q", s),
	)
}

// Extension returns the usual file name extension for the format.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type of rendered output.
func (f Format) ContentType() string {
	switch f {
	case FormatJS:
		return "text/javascript; charset=iso-8859-1"
	case FormatXML:
		return "application/xml; charset=iso-8859-1"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatTOML:
		return "application/toml"
	default:
		return "text/plain"
	}
}

// Render writes questions in the given format. The topic table is required by
// FormatXML, which prints category names, and by the data formats, which
// include the table.
func Render(w io.Writer, topics *domain.TopicTable, questions *domain.QuestionCollection, f Format) error {
	if topics == nil {
		topics = domain.NewTopicTable()
	}

	bw := bufio.NewWriter(w)

	var err error
	switch f {
	case FormatJS:
		err = writeJS(bw, questions.Questions())
	case FormatXML:
		err = writeXML(bw, topics, questions.Questions())
	case FormatJSON, FormatYAML, FormatTOML:
		err = writeData(bw, f, newDocument(topics, questions))
	default:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unsupported format %q", f))
	}
	if err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("render: flush: %w", err)
	}
	return nil
}
