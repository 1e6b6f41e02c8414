package main

import (
	"fmt"
	"io"
	"strings"
)

const boxInner = 56

// printBox frames text in a 60 column box, wrapping on word boundaries.
func printBox(w io.Writer, text string) {
	border := strings.Repeat("─", boxInner+2)
	fmt.Fprintf(w, "┌%s┐\n", border)
	for _, line := range wrap(text, boxInner) {
		fmt.Fprintf(w, "│ %-56s │\n", line)
	}
	fmt.Fprintf(w, "└%s┘\n", border)
}

// wrap splits text into lines of at most width runes. Words longer than
// width are cut.
func wrap(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		var cur []rune
		for _, word := range strings.Fields(para) {
			runes := []rune(word)
			for len(runes) > width {
				if len(cur) > 0 {
					lines = append(lines, string(cur))
					cur = nil
				}
				lines = append(lines, string(runes[:width]))
				runes = runes[width:]
			}
			switch {
			case len(runes) == 0:
			case len(cur) == 0:
				cur = runes
			case len(cur)+1+len(runes) <= width:
				cur = append(append(cur, ' '), runes...)
			default:
				lines = append(lines, string(cur))
				cur = runes
			}
		}
		lines = append(lines, string(cur))
	}
	return lines
}
