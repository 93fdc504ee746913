package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/justyntemme/tagbrowse/internal/entry"
	"github.com/justyntemme/tagbrowse/internal/tags"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	dirStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// chip renders tag as a coloured label using its registry colours.
func chip(t tags.Tag, pretty bool) string {
	label := t.Name
	if pretty && t.PrettyName != "" {
		label = t.PrettyName
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(t.Background.Hex())).
		Foreground(lipgloss.Color(t.Text.Hex())).
		Padding(0, 1).
		Render(label)
}

// chips renders names with their registry definitions. Unknown tags get the
// default colours.
func chips(reg *tags.Registry, names []string, pretty bool) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		t, ok := reg.FindTag(n)
		if !ok {
			t = tags.NewTag(n)
		}
		out = append(out, chip(t, pretty))
	}
	return strings.Join(out, " ")
}

// writeEntries prints one row per entry: name without the tag block, tags,
// size and age.
func writeEntries(w io.Writer, reg *tags.Registry, entries []*entry.Entry, pretty bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, headerStyle.Render("NAME")+"\t"+headerStyle.Render("TAGS")+"\t"+
		headerStyle.Render("SIZE")+"\t"+headerStyle.Render("MODIFIED"))
	for _, e := range entries {
		name := tags.Strip(e.Name())
		size := humanize.Bytes(uint64(e.Size()))
		if e.IsDir() {
			name = dirStyle.Render(name + "/")
			size = mutedStyle.Render("-")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			name,
			chips(reg, e.Tags(), pretty),
			size,
			mutedStyle.Render(humanize.Time(e.ModTime())))
	}
	tw.Flush()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%s %s", humanize.Comma(int64(n)), many)
}
