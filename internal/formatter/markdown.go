// Package formatter renders run reports as markdown.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// AlignTables pads every markdown table in content so that its columns line
// up by display width. Other lines are left untouched.
func AlignTables(content string) string {
	lines := strings.Split(content, "\n")

	var (
		out   []string
		table []string
	)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			table = append(table, line)
			continue
		}

		if len(table) > 0 {
			out = append(out, alignTable(table)...)
			table = nil
		}

		out = append(out, line)
	}

	if len(table) > 0 {
		out = append(out, alignTable(table)...)
	}

	return strings.Join(out, "\n")
}

// Table renders headers and rows as an aligned markdown table. Pipes and
// newlines inside cells are escaped.
func Table(headers []string, rows [][]string) string {
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, row(headers), row(make([]string, len(headers))))

	for _, r := range rows {
		lines = append(lines, row(r))
	}

	return strings.Join(alignTable(lines), "\n")
}

func row(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "\n", " ")
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}

	return "| " + strings.Join(escaped, " | ") + " |"
}

func alignTable(rows []string) []string {
	// A header without a separator is not a table.
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, splitRow(r))
	}

	colCount := 0
	for _, cells := range table {
		colCount = max(colCount, len(cells))
	}

	sepIdx := -1
	if isSeparator(table[1]) {
		sepIdx = 1
	}

	widths := make([]int, colCount)
	for i := range widths {
		widths[i] = 3
	}

	for rIdx, cells := range table {
		if rIdx == sepIdx {
			continue
		}

		for i, cell := range cells {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	result := make([]string, 0, len(table))

	for rIdx, cells := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")

			if rIdx == sepIdx {
				sb.WriteString(strings.Repeat("-", widths[j]))
			} else {
				content := ""
				if j < len(cells) {
					content = cells[j]
				}

				sb.WriteString(runewidth.FillRight(content, widths[j]))
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}

// splitRow splits on unescaped pipes and trims each cell.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")

	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) {
		line = line[:len(line)-1]
	}

	var (
		cells []string
		cur   strings.Builder
	)

	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cur.WriteString(`\|`)
			i++
		case line[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(line[i])
		}
	}

	return append(cells, strings.TrimSpace(cur.String()))
}

func isSeparator(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, "-: ") != "" {
			return false
		}
	}

	return true
}
