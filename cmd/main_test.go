package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizconv/internal/catalog"
	"github.com/victornm/quizconv/internal/decode"
	"github.com/victornm/quizconv/internal/errors"
)

func str8(b *bytes.Buffer, s string) {
	b.WriteByte(byte(len(s)))
	b.WriteString(s)
}

func str16(b *bytes.Buffer, s string) {
	b.Write(binary.BigEndian.AppendUint16(nil, uint16(len(s))))
	b.WriteString(s)
}

type inputs struct {
	dir       string
	topics    string
	questions string
	output    string
}

func writeInputs(t *testing.T, topicVersion string) inputs {
	t.Helper()
	dir := t.TempDir()

	var tb bytes.Buffer
	str8(&tb, "MMM Themen")
	str8(&tb, topicVersion)
	tb.Write([]byte{0, 0, 0, 0, 0, 1})
	str8(&tb, "Wild")

	var qb bytes.Buffer
	str8(&qb, "MMM Fragen")
	str8(&qb, decode.QuestionFileVersion)
	qb.Write([]byte{0, 0})
	var h [23]byte
	h[3] = 1
	h[7] = 1
	h[15] = 2
	h[18] = 0b1000
	qb.Write(h[:])
	str16(&qb, "Frage")
	for _, a := range []string{"a", "b", "c", "d"} {
		str16(&qb, a)
	}
	qb.Write([]byte{0, 0, 0, 0})

	in := inputs{
		dir:       dir,
		topics:    filepath.Join(dir, "THEMEN.DAT"),
		questions: filepath.Join(dir, "FRAGEN.DAT"),
		output:    filepath.Join(dir, "questions.js"),
	}
	require.NoError(t, os.WriteFile(in.topics, tb.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(in.questions, qb.Bytes(), 0o644))
	return in
}

type result struct {
	code   int
	stdout string
	stderr string
}

func execute(stdin string, args ...string) result {
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestConvert(t *testing.T) {
	in := writeInputs(t, decode.TopicFileVersion)

	res := execute("", "convert", "-o", in.output, in.topics, in.questions)

	require.Equal(t, errors.ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, "### MMM Themen")

	out, err := os.ReadFile(in.output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "questions = [\n"))
	assert.Contains(t, string(out), "{ 'text': 'd', 'correct': true }")
}

func TestConvert_ExitCodes(t *testing.T) {
	tests := map[string]struct {
		arrange func(t *testing.T) (stdin string, args []string)
		code    int
		assert  func(t *testing.T, res result)
	}{
		"unknown version declined": {
			arrange: func(t *testing.T) (string, []string) {
				in := writeInputs(t, "Datei-Version 1.0")
				return "n\n", []string{"convert", "-o", in.output, in.topics, in.questions}
			},
			code: errors.ExitDeclined,
			assert: func(t *testing.T, res result) {
				assert.Contains(t, res.stderr, "Continue? [y/n] ")
			},
		},
		"unknown version accepted": {
			arrange: func(t *testing.T) (string, []string) {
				in := writeInputs(t, "Datei-Version 1.0")
				return "x\nY\n", []string{"convert", "-o", in.output, in.topics, in.questions}
			},
			code: errors.ExitOK,
		},
		"unknown version at end of input": {
			arrange: func(t *testing.T) (string, []string) {
				in := writeInputs(t, "Datei-Version 1.0")
				return "", []string{"convert", "-o", in.output, in.topics, in.questions}
			},
			code: errors.ExitDeclined,
		},
		"overwrite declined": {
			arrange: func(t *testing.T) (string, []string) {
				in := writeInputs(t, decode.TopicFileVersion)
				require.NoError(t, os.WriteFile(in.output, []byte("keep"), 0o644))
				return "n", []string{"convert", "-o", in.output, in.topics, in.questions}
			},
			code: errors.ExitUsage,
			assert: func(t *testing.T, res result) {
				assert.Contains(t, res.stderr, "does already exist")
			},
		},
		"missing input": {
			arrange: func(t *testing.T) (string, []string) {
				in := writeInputs(t, decode.TopicFileVersion)
				return "", []string{"convert", "-o", in.output, filepath.Join(in.dir, "nope"), in.questions}
			},
			code: errors.ExitUsage,
		},
		"missing argument": {
			arrange: func(t *testing.T) (string, []string) {
				return "", []string{"convert", "only-one"}
			},
			code: errors.ExitUsage,
		},
		"broken header": {
			arrange: func(t *testing.T) (string, []string) {
				in := writeInputs(t, decode.TopicFileVersion)
				require.NoError(t, os.WriteFile(in.topics, []byte{0}, 0o644))
				return "", []string{"convert", "-o", in.output, in.topics, in.questions}
			},
			code: errors.ExitFatal,
		},
		"unsupported format": {
			arrange: func(t *testing.T) (string, []string) {
				in := writeInputs(t, decode.TopicFileVersion)
				return "", []string{"convert", "--format", "pdf", in.topics, in.questions}
			},
			code: errors.ExitFatal,
		},
	}

	for desc, tc := range tests {
		t.Run(desc, func(t *testing.T) {
			stdin, args := tc.arrange(t)

			res := execute(stdin, args...)

			assert.Equal(t, tc.code, res.code, res.stderr)
			if tc.assert != nil {
				tc.assert(t, res)
			}
		})
	}
}

func TestConvert_OverwriteConfirmed(t *testing.T) {
	in := writeInputs(t, decode.TopicFileVersion)
	require.NoError(t, os.WriteFile(in.output, []byte("old"), 0o644))

	res := execute("y\n", "convert", "-o", in.output, in.topics, in.questions)
	require.Equal(t, errors.ExitOK, res.code, res.stderr)

	out, err := os.ReadFile(in.output)
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(out))
}

func TestConvert_StdoutWithStats(t *testing.T) {
	in := writeInputs(t, decode.TopicFileVersion)

	res := execute("", "convert", "--stdout", "--stats", "--format", "json", in.topics, in.questions)

	require.Equal(t, errors.ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, `"name": "Wild"`)
	assert.Contains(t, res.stderr, "points           2.00 (avg 2.00)")
	assert.NoFileExists(t, in.output)
}

func TestConvert_Store(t *testing.T) {
	in := writeInputs(t, decode.TopicFileVersion)
	db := filepath.Join(in.dir, "quiz.db")

	res := execute("", "convert", "--yes", "--stdout", "--store", db, in.topics, in.questions)
	require.Equal(t, errors.ExitOK, res.code, res.stderr)

	store, err := catalog.NewSQLite(context.Background(), db)
	require.NoError(t, err)
	defer store.Close()

	cs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, in.topics, cs[0].TopicFile)
	assert.Equal(t, 1, cs[0].QuestionCount)
}

func TestTopics(t *testing.T) {
	in := writeInputs(t, decode.TopicFileVersion)

	res := execute("", "topics", in.topics)

	require.Equal(t, errors.ExitOK, res.code, res.stderr)
	assert.Equal(t, "ID  NAME\n1   Wild\n", res.stdout)
}

func TestUnknownCommand(t *testing.T) {
	res := execute("", "frobnicate")

	assert.Equal(t, errors.ExitUsage, res.code)
	assert.Contains(t, res.stderr, "quizconv --help")
}
