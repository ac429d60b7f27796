package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/russolabs/russo/internal/models"
)

const htmlHeader = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>russo report</title>
<style>
body { font-family: sans-serif; max-width: 60em; margin: 2em auto; padding: 0 1em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
code { background: #f4f4f4; padding: 0.1em 0.3em; }
.pass { color: #1a7f37; }
.fail { color: #cf222e; }
</style>
</head>
<body>
`

const htmlFooter = "</body>\n</html>\n"

// WriteHTML renders the accumulated results as an HTML report at path. The
// body is authored as markdown and rendered through goldmark.
func (r *Reporter) WriteHTML(path string) error {
	md := r.markdown()

	renderer := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := renderer.Convert([]byte(md), &body); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(htmlHeader)
	out.Write(body.Bytes())
	out.WriteString(htmlFooter)

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// markdown builds the report source: an overview table plus a section per
// scenario with failure diagnostics.
func (r *Reporter) markdown() string {
	var sb strings.Builder

	total, passed, failed := r.Totals()
	status := "PASSED"
	if !r.Passed() {
		status = "FAILED"
	}
	fmt.Fprintf(&sb, "# Test report: %s\n\n", status)
	fmt.Fprintf(&sb, "%d runs, %d passed, %d failed.\n\n", total, passed, failed)

	sb.WriteString("| Scenario | Runs | Passed | Match rate |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, res := range r.results {
		v := res.Verdict
		fmt.Fprintf(&sb, "| %s | %d | %d | %.0f%% |\n", res.Name, v.Total(), v.PassedCount(), v.MatchRate()*100)
	}
	sb.WriteString("\n")

	for _, res := range r.results {
		if res.Verdict.Passed() {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n", res.Name)
		for _, run := range res.Verdict.Runs {
			if run.Passed() {
				continue
			}
			switch run.Status {
			case models.StatusError:
				fmt.Fprintf(&sb, "- run %d of `%s`: error: %s\n", run.RunIndex+1, run.Prompt, run.ErrorMsg)
			default:
				fmt.Fprintf(&sb, "- run %d of `%s`:\n\n```\n%s\n```\n", run.RunIndex+1, run.Prompt, run.Verdict.Summary())
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
