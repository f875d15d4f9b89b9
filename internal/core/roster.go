package core

import "strings"

// ParseRosterText turns pasted roster text into student guesses.
//
// One student per line. A line may start with a gender marker: "F " or "F,"
// for female, "M " or "M," for male. Unmarked lines default to male. Commas
// left in the name are dropped. Blank lines are skipped and \r\n, \r and \n
// are all accepted as line breaks.
func ParseRosterText(text string) []StudentGuess {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []StudentGuess
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		gender := Male
		switch {
		case strings.HasPrefix(line, "F "), strings.HasPrefix(line, "F,"):
			gender = Female
			line = line[2:]
		case strings.HasPrefix(line, "M "), strings.HasPrefix(line, "M,"):
			line = line[2:]
		}

		name := strings.TrimSpace(strings.ReplaceAll(line, ",", ""))
		if name == "" {
			continue
		}
		out = append(out, StudentGuess{Name: name, Gender: gender})
	}
	return out
}
