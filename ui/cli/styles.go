// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/obskeeper/internal/core"
	"github.com/toeirei/obskeeper/internal/i18n"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type resultLine struct {
	label string
	err   error
}

func renderResults(w io.Writer, title string, lines []resultLine) {
	if len(lines) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	b.WriteByte('\n')
	failed := 0
	for _, l := range lines {
		if l.err != nil {
			failed++
			b.WriteString(failStyle.Render("✘ " + l.label))
			b.WriteString(dimStyle.Render(": " + l.err.Error()))
		} else {
			b.WriteString(okStyle.Render("✔ " + l.label))
		}
		b.WriteByte('\n')
	}
	b.WriteString(i18n.T("summary.totals", len(lines)-failed, failed))
	fmt.Fprintln(w, b.String())
}

func dashboardLines(results []core.DashboardResult) []resultLine {
	out := make([]resultLine, 0, len(results))
	for _, r := range results {
		label := r.Title
		if label == "" {
			label = r.UID
		}
		out = append(out, resultLine{label: label, err: r.Err})
	}
	return out
}

func datasourceLines(results []core.DatasourceResult) []resultLine {
	out := make([]resultLine, 0, len(results))
	for _, r := range results {
		out = append(out, resultLine{label: r.Name, err: r.Err})
	}
	return out
}

func stepLines(results []core.StepResult) []resultLine {
	out := make([]resultLine, 0, len(results))
	for _, r := range results {
		out = append(out, resultLine{label: fmt.Sprintf("%s (%s)", r.Name, r.Duration.Round(time.Millisecond)), err: r.Err})
	}
	return out
}

func importLines(results []core.ImportResult) []resultLine {
	out := make([]resultLine, 0, len(results))
	for _, r := range results {
		out = append(out, resultLine{label: r.File, err: r.Err})
	}
	return out
}
