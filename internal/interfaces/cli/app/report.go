package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sbn-software/samsync/internal/application/migration"
	"github.com/sbn-software/samsync/internal/infrastructure/email"
	"github.com/sbn-software/samsync/internal/shared/constants"
	"github.com/sbn-software/samsync/internal/shared/services/markdown"
)

// WriteSummary prints the run-end summary in the requested format.
func WriteSummary(w io.Writer, format string, summary migration.Summary) error {
	switch format {
	case constants.OutputText, "":
		return summary.WriteText(w, language.English)
	case constants.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case constants.OutputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(summary)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// Report prints the summary of a finished run and mails it when reports are
// enabled. It runs whatever the outcome of the run, so partial counters are
// reported too.
func (rt *Runtime) Report(w io.Writer, kind migration.Kind, stats migration.Stats) error {
	summary := stats.Summary(kind, rt.Source.Experiment())
	if err := WriteSummary(w, rt.flags.Output, summary); err != nil {
		return err
	}

	if !rt.Config.Email.Enabled {
		return nil
	}
	var body bytes.Buffer
	if err := summary.WriteMarkdown(&body, language.English); err != nil {
		return err
	}
	mailer := email.NewSMTPReportMailer(rt.Config.Email, markdown.NewReportRenderer())
	subject := fmt.Sprintf("samsync %s run for %s", kind, rt.Source.Experiment())
	if err := mailer.SendReport(subject, body.String()); err != nil {
		// The run itself succeeded; a lost report mail only warrants a warning.
		rt.Logger.Warnw("failed to send run report", "error", err)
		return nil
	}
	rt.Logger.Infow("run report sent", "recipients", len(rt.Config.Email.To))
	return nil
}
