package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"telcochurn/internal/evaluation"
	"telcochurn/internal/features"
	"telcochurn/internal/jobs"
	"telcochurn/internal/preprocessing"
	"telcochurn/internal/profile"
)

// Console prints run results as coloured headings and aligned tables.
type Console struct {
	w io.Writer

	green  func(a ...any) string
	red    func(a ...any) string
	yellow func(a ...any) string
	cyan   func(a ...any) string
	blue   func(a ...any) string
}

func NewConsole(w io.Writer, noColor bool) *Console {
	palette := []*color.Color{
		color.New(color.FgGreen),
		color.New(color.FgRed),
		color.New(color.FgYellow),
		color.New(color.FgCyan),
		color.New(color.FgBlue, color.Bold),
	}
	if noColor {
		for _, c := range palette {
			c.DisableColor()
		}
	}
	return &Console{
		w:      w,
		green:  palette[0].SprintFunc(),
		red:    palette[1].SprintFunc(),
		yellow: palette[2].SprintFunc(),
		cyan:   palette[3].SprintFunc(),
		blue:   palette[4].SprintFunc(),
	}
}

func (c *Console) Heading(title string) {
	fmt.Fprintf(c.w, "\n%s\n%s\n", c.blue(title), strings.Repeat("═", 60))
}

func (c *Console) table(header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(c.w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	return t
}

// Quality prints the shape, missing and blank counts and duplicate rows
// of the raw dataset.
func (c *Console) Quality(q *profile.Quality) {
	c.Heading("Dataset")
	fmt.Fprintf(c.w, "Dataset Shape: (%d, %d)\n\n", q.Rows, q.Cols)

	t := c.table([]string{"Column", "Missing", "Blank"})
	for _, col := range q.Columns {
		t.Append([]string{col.Name, fmt.Sprint(col.Missing), c.count(col.Blank)})
	}
	t.Render()

	fmt.Fprintf(c.w, "\nNumber of duplicate rows: %s\n", c.count(q.Duplicates))
}

func (c *Console) count(n int) string {
	if n > 0 {
		return c.yellow(fmt.Sprint(n))
	}
	return fmt.Sprint(n)
}

func (c *Console) Cleaning(r *preprocessing.CleanReport, dropped string) {
	c.Heading("Cleaning")
	fmt.Fprintf(c.w, "Dropped column: %s\n", dropped)

	names := make([]string, 0, len(r.Coerced))
	for name := range r.Coerced {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.w, "Coerced %s: %d values became missing\n", name, r.Coerced[name])
	}

	fmt.Fprintf(c.w, "Missing values before dropping: %d\n", r.MissingBefore)
	fmt.Fprintf(c.w, "Rows: %d -> %d (%s dropped)\n", r.RowsBefore, r.RowsAfter, c.count(r.RowsDropped()))
}

func (c *Console) DTypes(cols []profile.ColumnInfo) {
	c.Heading("Column Types")
	t := c.table([]string{"Column", "Dtype"})
	for _, col := range cols {
		t.Append([]string{col.Name, col.DType})
	}
	t.Render()
}

func (c *Console) Describe(summaries []profile.Summary) {
	c.Heading("Numeric Summary")
	t := c.table([]string{"", "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
	for _, s := range summaries {
		t.Append([]string{
			s.Column,
			fmt.Sprint(s.Count),
			fmt.Sprintf("%.6f", s.Mean),
			fmt.Sprintf("%.6f", s.Std),
			fmt.Sprintf("%.6f", s.Min),
			fmt.Sprintf("%.6f", s.Q25),
			fmt.Sprintf("%.6f", s.Q50),
			fmt.Sprintf("%.6f", s.Q75),
			fmt.Sprintf("%.6f", s.Max),
		})
	}
	t.Render()
}

func (c *Console) ValueCounts(name string, counts []profile.ValueCount) {
	c.Heading(name + " value counts")
	t := c.table([]string{name, "count"})
	for _, vc := range counts {
		t.Append([]string{vc.Value, fmt.Sprint(vc.Count)})
	}
	t.Render()
}

func (c *Console) Encoding(enc *preprocessing.Encoding) {
	c.Heading("Label Encoding")
	fmt.Fprintf(c.w, "Categorical columns to encode: [%s]\n\n", strings.Join(enc.Columns, ", "))

	t := c.table([]string{"Column", "Mapping"})
	for _, name := range enc.Columns {
		classes := enc.Encoders[name].Classes
		pairs := make([]string, len(classes))
		for code, class := range classes {
			pairs[code] = fmt.Sprintf("%s=%d", class, code)
		}
		t.Append([]string{name, strings.Join(pairs, ", ")})
	}
	t.Render()
	fmt.Fprintln(c.w, c.green("Encoding complete."))
}

func (c *Console) Selection(sel *features.Selection) {
	c.Heading("Feature Selection")

	selected := make(map[string]bool, len(sel.Features))
	for _, f := range sel.Features {
		selected[f] = true
	}

	t := c.table([]string{"Feature", "r", "|r|", "Selected"})
	for _, corr := range sel.Correlations {
		if !corr.Defined {
			t.Append([]string{corr.Feature, "undefined", "", c.red("no")})
			continue
		}
		mark := "no"
		if selected[corr.Feature] {
			mark = c.green("yes")
		}
		t.Append([]string{corr.Feature, fmt.Sprintf("%+.4f", corr.R), fmt.Sprintf("%.4f", corr.Abs()), mark})
	}
	t.Render()

	fmt.Fprintf(c.w, "Selected features based on correlation threshold (|r| > %.2f):\n[%s]\n",
		sel.Threshold, strings.Join(sel.Features, ", "))
}

func (c *Console) Split(s *evaluation.Split, positive int) {
	c.Heading("Train/Test Split")
	t := c.table([]string{"Partition", "Rows", "Positive ratio"})
	t.Append([]string{"train", fmt.Sprint(len(s.YTrain)), fmt.Sprintf("%.4f", evaluation.ClassRatio(s.YTrain, positive))})
	t.Append([]string{"test", fmt.Sprint(len(s.YTest)), fmt.Sprintf("%.4f", evaluation.ClassRatio(s.YTest, positive))})
	t.Render()
}

func (c *Console) Model(name string, m *evaluation.ClassificationMetrics) {
	c.Heading(fmt.Sprintf("----- %s Evaluation (Filtered Features) -----", name))
	fmt.Fprintf(c.w, "Accuracy: %s\n", c.green(fmt.Sprintf("%.4f", m.Accuracy)))
	fmt.Fprintf(c.w, "F1 Score: %s\n", c.green(fmt.Sprintf("%.4f", m.F1Score)))
	fmt.Fprintf(c.w, "\nClassification Report:\n%s\n", m.ClassificationReport())
	fmt.Fprintf(c.w, "Confusion Matrix:\n%s\n", m.FormatConfusionMatrix())
}

func (c *Console) Stages(stages []jobs.Snapshot) {
	c.Heading("Stages")
	t := c.table([]string{"Stage", "Status", "Elapsed", "Note"})
	for _, s := range stages {
		status := string(s.Status)
		switch s.Status {
		case jobs.JobCompleted:
			status = c.green(status)
		case jobs.JobFailed:
			status = c.red(status)
		case jobs.JobSkipped:
			status = c.yellow(status)
		}
		note := strings.Join(s.Logs, "; ")
		if s.Error != nil {
			note = s.Error.Error()
		}
		t.Append([]string{s.Name, status, s.Duration.Round(time.Millisecond).String(), note})
	}
	t.Render()
}

func (c *Console) Error(err error) {
	fmt.Fprintf(c.w, "%s %v\n", c.red("✗"), err)
}
