// Package decode reads the legacy topic and question files into the domain
// model.
//
// Both files start with two length-prefixed header lines; the second one
// carries the file version. Records follow until the stream is exhausted or
// a record can no longer be read, which ends decoding without an error.
package decode

import (
	"context"
	"log/slog"
	"strings"

	"github.com/victornm/quizconv/internal/binfile"
	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/telemetry"
)

const (
	TopicFileVersion    = "Datei-Version 2.0"
	QuestionFileVersion = "Datei-Version 3.0"
)

// Decision is the answer of a VersionPolicy.
type Decision int

const (
	Abort Decision = iota
	Proceed
)

// VersionMismatch describes a header whose version line is not the expected one.
type VersionMismatch struct {
	File string
	Got  string
	Want string
}

// VersionPolicy decides whether decoding continues with a file of unknown version.
type VersionPolicy func(ctx context.Context, m VersionMismatch) Decision

func AlwaysProceed(context.Context, VersionMismatch) Decision { return Proceed }

func AlwaysAbort(context.Context, VersionMismatch) Decision { return Abort }

// Header holds the two trimmed header lines of a file.
type Header struct {
	Title   string
	Version string
}

type Option func(*options)

type options struct {
	logger *slog.Logger
	policy VersionPolicy
	topics *domain.TopicTable
	file   string
}

// WithLogger sets the diagnostic sink. Header lines, version warnings and
// malformed terminators are reported there.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithVersionPolicy sets the policy consulted on a version mismatch.
// Without it, unknown versions abort.
func WithVersionPolicy(p VersionPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithTopics makes DecodeQuestions fail when a question refers to a
// category missing from the table.
func WithTopics(t *domain.TopicTable) Option {
	return func(o *options) {
		o.topics = t
	}
}

// WithFileName names the input in diagnostics and errors.
func WithFileName(name string) Option {
	return func(o *options) {
		o.file = name
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: slog.Default(),
		policy: AlwaysAbort,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func readHeader(ctx context.Context, r *binfile.Reader, o *options, want string) (Header, error) {
	var lines [2]string
	for i := range lines {
		s, ok := r.ReadString8()
		if !ok {
			return Header{}, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("error in header of %s at offset %d", o.file, r.Offset()),
			)
		}

		lines[i] = rtrim(string(s))
		o.logger.InfoContext(ctx, "### "+lines[i], "file", o.file)
	}

	h := Header{Title: lines[0], Version: lines[1]}
	if h.Version == want {
		return h, nil
	}

	telemetry.DecodeWarnings.WithLabelValues(telemetry.ReasonUnknownVersion).Inc()
	o.logger.WarnContext(ctx, "decode: unknown version", "file", o.file, "got", h.Version, "want", want)

	m := VersionMismatch{File: o.file, Got: h.Version, Want: want}
	if o.policy(ctx, m) != Proceed {
		return h, errors.New(errors.CodeAborted,
			errors.WithMessagef("unknown version %q in %s", h.Version, o.file),
		)
	}

	return h, nil
}

func rtrim(s string) string {
	return strings.TrimRight(s, " \r\n\t")
}

func sourceError(r *binfile.Reader, file string) error {
	if err := r.Err(); err != nil {
		return errors.New(errors.CodeInternal,
			errors.WithMessagef("read %s", file),
			errors.WithCause(err),
		)
	}
	return nil
}
