package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/gomapping/internal/mapper"
	"github.com/dbsmedya/gomapping/internal/types"
)

// maxLabelWidth truncates long mapping label lists in console tables.
const maxLabelWidth = 48

// printHeader prints a formatted header
func printHeader(w io.Writer, format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := runewidth.StringWidth(title) + 4
	fmt.Fprintln(w, strings.Repeat("=", width))
	fmt.Fprintf(w, "  %s\n", color.Bold.Sprint(title))
	fmt.Fprintln(w, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "[%s]\n", color.Cyan.Sprint(title))
	fmt.Fprintln(w, strings.Repeat("-", runewidth.StringWidth(title)+2))
}

// printField prints an aligned "name: value" line.
func printField(w io.Writer, name string, value interface{}) {
	fmt.Fprintf(w, "  %s %v\n", runewidth.FillRight(name+":", 16), value)
}

// printTable prints rows under a header with columns padded to their
// display width. Numeric columns are right-aligned.
func printTable(w io.Writer, header []string, rows [][]string, numeric map[int]bool) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	line := func(cells []string, style color.Style) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			if numeric[i] {
				parts[i] = runewidth.FillLeft(c, widths[i])
			} else {
				parts[i] = runewidth.FillRight(c, widths[i])
			}
		}
		fmt.Fprintf(w, "  %s\n", style.Sprint(strings.Join(parts, "  ")))
	}

	line(header, color.New(color.OpBold))
	for _, row := range rows {
		line(row, color.New())
	}
}

func resultRow(r *types.Result) []string {
	return []string{
		strconv.Itoa(r.N),
		runewidth.Truncate(FormatLabels(r.Labels), maxLabelWidth, "..."),
		FormatFloat(r.Hs),
		FormatFloat(r.Hk),
		FormatFloat(r.Smap),
		FormatFloat(r.Sinf),
	}
}

var resultHeader = []string{"N", "variables", "hs", "hk", "smap", "smap_inf"}
var resultNumeric = map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true}

// BestPerLevel returns the lowest-Smap result of every level, ordered by N.
func BestPerLevel(results []*types.Result) []*types.Result {
	best := make(map[int]*types.Result)
	for _, r := range results {
		if b, ok := best[r.N]; !ok || r.Smap < b.Smap {
			best[r.N] = r
		}
	}
	out := make([]*types.Result, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].N < out[j].N })
	return out
}

// Top returns up to k results with the lowest Smap, fewer variables first on ties.
func Top(results []*types.Result, k int) []*types.Result {
	sorted := append([]*types.Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Smap != sorted[j].Smap {
			return sorted[i].Smap < sorted[j].Smap
		}
		return sorted[i].N < sorted[j].N
	})
	if k >= 0 && k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}

// PrintSummary renders a finished run.
func PrintSummary(w io.Writer, res *mapper.RunResult, output string, top int) {
	fmt.Fprintln(w)
	printHeader(w, "Mapping Entropy Run")
	fmt.Fprintln(w)

	printSection(w, "Dataset")
	printField(w, "Run ID", res.RunID)
	printField(w, "Records", res.Records)
	printField(w, "Variables", res.Variables)
	printField(w, "Microstates", res.Microstates)
	printField(w, "Full entropy", FormatFloat(res.FullEntropy))
	printField(w, "Volume", FormatFloat(res.Volume))
	printField(w, "Seed", res.Seed)
	fmt.Fprintln(w)

	printSection(w, "Levels")
	rows := make([][]string, len(res.Levels))
	for i, l := range res.Levels {
		rows[i] = []string{
			strconv.Itoa(l.N),
			formatPossible(l.Possible),
			strconv.Itoa(l.Evaluated),
			string(l.Strategy),
			l.Duration.Round(time.Microsecond).String(),
		}
	}
	printTable(w, []string{"N", "possible", "evaluated", "strategy", "time"}, rows, map[int]bool{0: true, 1: true, 2: true})
	fmt.Fprintln(w)

	printSection(w, "Best mapping per level")
	printResults(w, BestPerLevel(res.Results))
	fmt.Fprintln(w)

	if top > 0 {
		printSection(w, fmt.Sprintf("Top %d by smap", top))
		printResults(w, Top(res.Results, top))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s %d mappings written to %s in %s\n",
		color.Green.Sprint("✓"),
		len(res.Results),
		output,
		res.Duration.Round(time.Millisecond),
	)
}

func printResults(w io.Writer, results []*types.Result) {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = resultRow(r)
	}
	printTable(w, resultHeader, rows, resultNumeric)
}

// PrintInspection renders dataset statistics and the sampling plan.
func PrintInspection(w io.Writer, in *mapper.Inspection, source string, maxBinom int) {
	fmt.Fprintln(w)
	printHeader(w, "Dataset: %s", source)
	fmt.Fprintln(w)

	printSection(w, "Summary")
	printField(w, "Records", in.Records)
	printField(w, "Variables", in.Variables)
	printField(w, "Microstates", in.Microstates)
	printField(w, "Full entropy", FormatFloat(in.FullEntropy))
	printField(w, "Volume", FormatFloat(in.Volume))
	fmt.Fprintln(w)

	printSection(w, "Variables")
	vrows := make([][]string, len(in.Labels))
	for i, l := range in.Labels {
		vrows[i] = []string{strconv.Itoa(i), l, strconv.Itoa(in.Cardinalities[i])}
	}
	printTable(w, []string{"index", "label", "distinct"}, vrows, map[int]bool{0: true, 2: true})
	fmt.Fprintln(w)

	printSection(w, fmt.Sprintf("Sampling plan (max_binom=%d)", maxBinom))
	prows := make([][]string, len(in.Levels))
	for i, l := range in.Levels {
		prows[i] = []string{strconv.Itoa(l.N), formatPossible(l.Possible), strconv.Itoa(l.Quota), string(l.Strategy)}
	}
	printTable(w, []string{"N", "possible", "evaluated", "strategy"}, prows, map[int]bool{0: true, 1: true, 2: true})
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total mappings to evaluate: %s\n", color.Yellow.Sprint(in.Total))
}

func formatPossible(c uint64) string {
	if c == ^uint64(0) {
		return ">=" + strconv.FormatUint(c, 10)
	}
	return strconv.FormatUint(c, 10)
}
