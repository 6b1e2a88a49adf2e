package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/victornm/quizconv/internal/catalog"
	"github.com/victornm/quizconv/internal/convert"
	"github.com/victornm/quizconv/internal/decode"
	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/render"
	"github.com/victornm/quizconv/internal/stats"
)

const defaultOutput = "questions.js"

type convertOptions struct {
	output string
	format string
	yes    bool
	sort   bool
	stats  bool
	stdout bool
	store  string
}

func (a *app) convertCmd() *cobra.Command {
	var o convertOptions

	cmd := &cobra.Command{
		Use:   "convert <topic file> <question file>",
		Short: "Convert a topic file and a question file",
		Long: `Convert a topic file and a question file.

Without --output the result is written to questions.js, or to questions.<ext>
for formats other than js. An existing output file is only replaced after
confirmation. Files of an unknown version are converted after confirmation.

Examples:
  quizconv convert THEMEN.DAT FRAGEN.DAT
  quizconv convert --format xml -o fragen.xml THEMEN.DAT FRAGEN.DAT
  quizconv convert --yes --sort --stats --store quiz.db THEMEN.DAT FRAGEN.DAT`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, o, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&o.output, "output", "o", defaultOutput, "Output file")
	cmd.Flags().StringVar(&o.format, "format", string(render.FormatJS), "Output format (js, xml, json, yaml, toml)")
	cmd.Flags().BoolVarP(&o.yes, "yes", "y", false, "Proceed on unknown versions and overwrite without asking")
	cmd.Flags().BoolVar(&o.sort, "sort", false, "Sort questions by number")
	cmd.Flags().BoolVar(&o.stats, "stats", false, "Print catalog statistics to stderr")
	cmd.Flags().BoolVar(&o.stdout, "stdout", false, "Write the result to stdout instead of a file")
	cmd.Flags().StringVar(&o.store, "store", "", "Also save the catalog to this SQLite database")
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, o convertOptions, topicPath, questionPath string) error {
	ctx := cmd.Context()

	if !cmd.Flags().Changed("format") {
		o.format = a.config.Convert.Format
	}
	f, err := render.ParseFormat(o.format)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("output") && f != render.FormatJS {
		o.output = "questions" + f.Extension()
	}

	topics, err := readInput(topicPath)
	if err != nil {
		return err
	}
	questions, err := readInput(questionPath)
	if err != nil {
		return err
	}

	policy := a.prompt.versionPolicy
	if o.yes {
		policy = decode.AlwaysProceed
	}

	cs := convert.NewService(convert.Config{})
	res, err := cs.Convert(ctx, convert.Request{
		Topics:        topics,
		Questions:     questions,
		TopicFile:     topicPath,
		QuestionFile:  questionPath,
		Format:        f,
		Sort:          o.sort,
		VersionPolicy: policy,
	})
	if err != nil {
		return err
	}

	if o.stats {
		s := stats.Compute(res.Catalog.Topics, res.Catalog.Questions)
		if err := s.Write(a.stderr); err != nil {
			return errors.Internal(err)
		}
	}

	if o.store != "" {
		if err := saveCatalog(cmd, o.store, res); err != nil {
			return err
		}
	}

	if o.stdout {
		if _, err := a.stdout.Write(res.Output); err != nil {
			return errors.Internal(err)
		}
		return nil
	}

	return a.writeOutput(o, res.Output)
}

func readInput(path string) ([]byte, error) {
	slog.Info(fmt.Sprintf("Reading file '%s'...", path))

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("cannot read %s: %v", path, err),
			errors.WithCause(err))
	}
	return b, nil
}

func saveCatalog(cmd *cobra.Command, path string, res *convert.Result) error {
	store, err := catalog.NewSQLite(cmd.Context(), path)
	if err != nil {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("open catalog store %s: %v", path, err),
			errors.WithCause(err))
	}
	defer store.Close()

	if err := store.Save(cmd.Context(), res.Catalog); err != nil {
		return err
	}
	slog.Info("saved catalog", "catalog_id", res.CatalogID, "store", path)
	return nil
}

func (a *app) writeOutput(o convertOptions, out []byte) error {
	if _, err := os.Stat(o.output); err == nil && !o.yes {
		fmt.Fprintf(a.stderr, "A file %q does already exist\nContinuing would delete this file\n", o.output)
		if !a.prompt.confirm() {
			return errors.New(errors.CodeAlreadyExists,
				errors.WithMessagef("%s not overwritten", o.output))
		}
	}

	if err := os.WriteFile(o.output, out, 0o644); err != nil {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("cannot write %s: %v", o.output, err),
			errors.WithCause(err))
	}

	slog.Debug("wrote output", "file", o.output, "bytes", len(out))
	return nil
}
