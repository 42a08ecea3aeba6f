package format

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Bytes formats a byte count in a readable format.
func Bytes(b float64) string {
	return bytesSuffix(b, "")
}

// Rate formats a bytes-per-second value in a readable format.
func Rate(b float64) string {
	return bytesSuffix(b, "/s")
}

func bytesSuffix(b float64, suffix string) string {
	const (
		kb = 1024
		mb = 1024 * 1024
		gb = 1024 * 1024 * 1024
	)
	abs := math.Abs(b)
	switch {
	case abs >= gb:
		return fmt.Sprintf("%.2f GB%s", b/gb, suffix)
	case abs >= mb:
		return fmt.Sprintf("%.2f MB%s", b/mb, suffix)
	case abs >= kb:
		return fmt.Sprintf("%.2f KB%s", b/kb, suffix)
	}
	return fmt.Sprintf("%d B%s", int64(b), suffix)
}

// Bar renders a bracketed progress bar of the given length.
// Percent is clamped into [0,100].
func Bar(percent float64, length int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(math.Round(float64(length) * percent / 100))
	if filled > length {
		filled = length
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", length-filled) + "]"
}

// Uptime formats an uptime in seconds as a compact d/h/m string.
func Uptime(seconds uint64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	mins := (seconds % 3600) / 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// Duration formats a duration readably.
func Duration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

// EscapeMarkdown blanks out characters that break legacy Telegram markdown.
func EscapeMarkdown(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '*', '`', '[':
			return ' '
		}
		return r
	}, s)
}

// Truncate truncates a string to max length.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "~"
}

// PadLabel left-justifies a label to the given width for aligned key/value rows.
func PadLabel(label string, width int) string {
	if len(label) >= width {
		return label
	}
	return label + strings.Repeat(" ", width-len(label))
}
