package decode

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/victornm/quizconv/internal/binfile"
	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/sanitize"
	"github.com/victornm/quizconv/internal/telemetry"
)

// topic record prefix; bytes 0..3 are reserved, 4..5 hold the id
const topicPrefixSize = 6

// DecodeTopics reads a topic file.
func DecodeTopics(ctx context.Context, src io.Reader, opts ...Option) (*domain.TopicTable, error) {
	o := newOptions(opts)
	if o.file == "" {
		o.file = "topic file"
	}

	r := binfile.NewReader(src)
	if _, err := readHeader(ctx, r, o, TopicFileVersion); err != nil {
		return nil, err
	}

	t := domain.NewTopicTable()
	for !r.AtEnd() {
		prefix := r.ReadFixed(topicPrefixSize)

		name, ok := r.ReadString8()
		if !ok {
			break
		}

		id := int(binary.BigEndian.Uint16(prefix[4:6]))
		s := sanitize.String(name)
		o.logger.DebugContext(ctx, "decode: topic", "id", id, "name", s)

		t.Add(id, s)
		telemetry.RecordsDecoded.WithLabelValues(telemetry.KindTopic).Inc()
	}

	if err := sourceError(r, o.file); err != nil {
		return nil, err
	}

	return t, nil
}
