package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/prisma-rls/rls"
)

var (
	// Out receives regular output, Err receives errors.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr

	plain bool
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	InfoColor      = lipgloss.Color("#00D9FF")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// Status marks
var (
	successMark = color.New(color.FgGreen, color.Bold).SprintFunc()
	errorMark   = color.New(color.FgRed, color.Bold).SprintFunc()
	warningMark = color.New(color.FgYellow, color.Bold).SprintFunc()
	infoMark    = color.New(color.FgCyan).SprintFunc()
)

// SetPlain disables colors and styling for every printer.
func SetPlain(enable bool) {
	plain = enable
	color.NoColor = enable
	if enable {
		pterm.DisableStyling()
	} else {
		pterm.EnableStyling()
	}
}

func render(style lipgloss.Style, s string) string {
	if plain {
		return s
	}
	return style.Render(s)
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	fmt.Fprintln(Out, successMark("✓")+" "+render(SuccessStyle, fmt.Sprintf(format, args...)))
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	fmt.Fprintln(Err, errorMark("✗")+" "+render(ErrorStyle, fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	fmt.Fprintln(Out, warningMark("⚠")+" "+render(WarningStyle, fmt.Sprintf(format, args...)))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	fmt.Fprintln(Out, infoMark("ℹ")+" "+render(InfoStyle, fmt.Sprintf(format, args...)))
}

// PrintResult prints the status line of one augmented migration.
func PrintResult(r rls.Result) {
	switch r.Status {
	case rls.StatusAppended:
		PrintSuccess("%s", r.Message())
	case rls.StatusDryRun:
		PrintInfo("%s", r.Message())
		PrintSQL(r.SQL)
	case rls.StatusInvalidSQL:
		PrintWarning("%s", r.Message())
	default:
		PrintInfo("%s", r.Message())
	}
}

// PrintResults prints a summary table of a run.
func PrintResults(results []rls.Result) {
	if len(results) == 0 {
		return
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		tables := strings.Join(r.Tables, ", ")
		if tables == "" {
			tables = "-"
		}
		rows = append(rows, []string{r.Migration.Name, r.Status.String(), tables})
	}
	PrintTable([]string{"Migration", "Status", "Tables"}, rows)
}

// PrintTable prints a table using pterm
func PrintTable(headers []string, rows [][]string) {
	tableData := pterm.TableData{headers}
	tableData = append(tableData, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	if err != nil {
		for _, row := range tableData {
			fmt.Fprintln(Out, strings.Join(row, "\t"))
		}
		return
	}
	fmt.Fprintln(Out, out)
}

// PrintSQL prints SQL statements, highlighted through glamour when styling
// is enabled.
func PrintSQL(sql string) {
	sql = strings.Trim(sql, "\n")
	if plain {
		fmt.Fprintln(Out, sql)
		return
	}
	if err := PrintMarkdown("```sql\n" + sql + "\n```\n"); err != nil {
		fmt.Fprintln(Out, sql)
	}
}

// PrintMarkdown renders markdown content
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}

	fmt.Fprint(Out, out)
	return nil
}

// PrintSection prints a section header
func PrintSection(title string) {
	if plain {
		fmt.Fprintln(Out, title)
		return
	}
	width := 80
	if w := pterm.GetTerminalWidth(); w > 0 && w < width {
		width = w
	}

	section := lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(SecondaryColor).
		Render(TitleStyle.Render(title))

	fmt.Fprintln(Out, section)
}
