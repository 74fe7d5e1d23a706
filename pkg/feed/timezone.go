package feed

import "strings"

// UnfoldLines splits raw feed text into logical lines. Folded continuation
// lines (a single leading space) are concatenated onto the preceding line
// with the space stripped, per the ICS folding rule.
func UnfoldLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.HasPrefix(l, " ") && len(lines) > 0 {
			lines[len(lines)-1] += l[1:]
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// BuildTimezoneTable scans unfolded lines for VTIMEZONE blocks and maps each
// TZID to a signed UTC offset in minutes. Only the first TZOFFSETTO per zone
// is recorded: DST transition rules are deliberately collapsed to one
// representative offset.
func BuildTimezoneTable(lines []string) map[string]int {
	table := make(map[string]int)
	inZone := false
	tzid := ""

	for _, l := range lines {
		switch l {
		case "BEGIN:VTIMEZONE":
			inZone = true
			tzid = ""
			continue
		case "END:VTIMEZONE":
			inZone = false
			tzid = ""
			continue
		}
		if !inZone {
			continue
		}
		if strings.HasPrefix(l, "TZID:") {
			tzid = strings.TrimSpace(l[len("TZID:"):])
			continue
		}
		if strings.HasPrefix(l, "TZOFFSETTO:") && tzid != "" {
			if _, ok := table[tzid]; ok {
				continue
			}
			if minutes, ok := parseUTCOffset(strings.TrimSpace(l[len("TZOFFSETTO:"):])); ok {
				table[tzid] = minutes
			}
		}
	}
	return table
}

// parseUTCOffset converts a ±HHMM offset literal to signed minutes.
func parseUTCOffset(off string) (int, bool) {
	if len(off) < 5 {
		return 0, false
	}
	sign := 1
	switch off[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, false
	}
	digits := off[1:5]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	hours := int(digits[0]-'0')*10 + int(digits[1]-'0')
	minutes := int(digits[2]-'0')*10 + int(digits[3]-'0')
	return sign * (hours*60 + minutes), true
}
