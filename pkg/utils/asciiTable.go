package utils

import (
	"fmt"
	"strings"
)

type ASCIITableHeader struct {
	Name     string // name in table header
	Centered bool   // flag wether column is centered
	size     int    // calculated max size of column
}

// ASCIITable creates a markdown style ascii table from columns and data rows
func ASCIITable(header []ASCIITableHeader, rows [][]string, escapePipes bool) (string, error) {
	// set headers as minimum size
	for i, head := range header {
		header[i].size = len(head.Name)
	}

	// adjust column size from max row data
	for i, row := range rows {
		if len(row) != len(header) {
			return "", fmt.Errorf("row %d has %d columns, expected %d", i, len(row), len(header))
		}
		for num, value := range row {
			length := len(asciiTableValue(escapePipes, value))
			if length > header[num].size {
				header[num].size = length
			}
		}
	}

	out := strings.Builder{}
	for _, head := range header {
		out.WriteString(fmt.Sprintf("| %-*s ", head.size, head.Name))
	}
	out.WriteString("|\n")

	// output separator
	for _, head := range header {
		centered := " "
		if head.Centered {
			centered = ":"
		}
		out.WriteString(fmt.Sprintf("|%s%s%s", centered, strings.Repeat("-", head.size), centered))
	}
	out.WriteString("|\n")

	for _, row := range rows {
		for num, value := range row {
			out.WriteString(fmt.Sprintf("| %-*s ", header[num].size, asciiTableValue(escapePipes, value)))
		}
		out.WriteString("|\n")
	}

	return out.String(), nil
}

func asciiTableValue(escape bool, value string) string {
	if escape {
		value = strings.ReplaceAll(value, "|", "\\|")
	}

	return value
}
