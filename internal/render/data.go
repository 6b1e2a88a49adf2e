package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/sanitize"
)

// document is the shape shared by the data formats.
type document struct {
	Topics    []domain.Topic    `json:"topics" yaml:"topics" toml:"topics"`
	Questions []domain.Question `json:"questions" yaml:"questions" toml:"questions"`
}

func newDocument(topics *domain.TopicTable, questions *domain.QuestionCollection) document {
	d := document{
		Topics:    topics.Topics(),
		Questions: questions.Questions(),
	}

	for i := range d.Topics {
		d.Topics[i].Name = sanitize.ToUTF8(d.Topics[i].Name)
	}
	for i := range d.Questions {
		q := &d.Questions[i]
		q.Text = sanitize.ToUTF8(q.Text)
		for j := range q.Answers {
			q.Answers[j].Text = sanitize.ToUTF8(q.Answers[j].Text)
		}
	}

	return d
}

func writeData(w io.Writer, f Format, d document) error {
	var err error
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		err = enc.Encode(d)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(d)
		if err == nil {
			err = enc.Close()
		}
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		err = enc.Encode(d)
	}
	if err != nil {
		return fmt.Errorf("render: encode %s: %w", f, err)
	}
	return nil
}
