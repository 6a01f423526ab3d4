package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pragma/screennav/internal/scenario"
	"github.com/pragma/screennav/internal/state"
	"github.com/pragma/screennav/pkg/types"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	screenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dangerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	cellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// renderReport draws the final stack top first, then queue and counters.
func renderReport(r *scenario.Report) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Scenario %s", r.Script))}

	if len(r.Stack) == 0 {
		lines = append(lines, mutedStyle.Render("  (empty stack)"))
	}
	for i := len(r.Stack) - 1; i >= 0; i-- {
		if i == len(r.Stack)-1 {
			lines = append(lines, currentStyle.Render("▶ "+r.Stack[i]))
			continue
		}
		lines = append(lines, screenStyle.Render("  "+r.Stack[i]))
	}

	if len(r.Queue) > 0 {
		lines = append(lines, mutedStyle.Render("next: "+strings.Join(r.Queue, ", ")))
	}

	lines = append(lines, mutedStyle.Render(fmt.Sprintf(
		"opened %d  closed %d  replaced %d  rejected %d  cancelled %d",
		r.Stats.Opened, r.Stats.Closed, r.Stats.Replaced, r.Stats.Rejected, r.Stats.Cancelled)))

	for _, f := range r.Failures {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("⚠ %s %s failed", f.Screen, f.Phase)))
	}

	lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d steps in %s", r.Steps, r.Duration.Round(time.Millisecond))))

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderScreens draws one row per configured screen.
func renderScreens(cfg *types.NavigatorConfig) string {
	header := []string{"TAG", "NAME", "SHOW", "HIDE", "FOCUS", "BLUR"}
	rows := [][]string{header}

	for _, sc := range cfg.Screens {
		row := []string{sc.Tag, sc.DisplayName()}
		for _, phase := range []types.Phase{types.PhaseShow, types.PhaseHide, types.PhaseFocus, types.PhaseBlur} {
			row = append(row, describeTurntable(sc.Turntable(phase)))
		}
		if sc.NeedToOpen != nil && !*sc.NeedToOpen {
			row[1] += " (skipped)"
		}
		rows = append(rows, row)
	}

	return renderTable(rows)
}

func describeTurntable(tt types.TurntableConfig) string {
	if len(tt.Animations) == 0 {
		return "-"
	}
	ids := make([]string, len(tt.Animations))
	for i, a := range tt.Animations {
		ids[i] = a.ID
	}

	processor := tt.Processor
	if processor == "" {
		processor = types.ProcessorParallel
	}
	desc := fmt.Sprintf("%s [%s]", strings.Join(ids, ","), processor)
	if tt.AllowOverlap {
		desc += " overlap"
	}
	return desc
}

// renderStates draws the persisted run states sorted by script.
func renderStates(states map[string]*state.RunState) string {
	scripts := make([]string, 0, len(states))
	for script := range states {
		scripts = append(scripts, script)
	}
	sort.Strings(scripts)

	rows := [][]string{{"SCRIPT", "STATUS", "RUNS", "FAILURES", "LAST RUN", "STACK"}}
	for _, script := range scripts {
		s := states[script]
		stack := "-"
		if s.Report != nil && len(s.Report.Stack) > 0 {
			stack = strings.Join(s.Report.Stack, " > ")
		}
		rows = append(rows, []string{
			script,
			string(s.Status),
			fmt.Sprint(s.RunCount),
			fmt.Sprint(s.FailureCount),
			s.LastRun.Format("2006-01-02 15:04:05"),
			stack,
		})
	}

	return renderTable(rows)
}

// renderTable lays rows out in left-aligned columns, first row as header.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows))
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			style := cellStyle.Width(widths[i] + 2)
			switch {
			case r == 0:
				style = style.Inherit(titleStyle)
			case cell == string(state.StatusFailed):
				style = style.Inherit(dangerStyle)
			}
			cells[i] = style.Render(cell)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
