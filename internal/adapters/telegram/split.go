package telegram

import (
	"strings"

	"property_bot/internal/app"
)

// utf16Len is how Telegram counts message length: runes outside the BMP take two units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// messageChunks splits on block boundaries first. A single block longer than
// maxUnits is hard-wrapped, preferring a newline in its second half.
// Lengths are UTF-16 units; empty chunks are never returned.
func messageChunks(text string, maxUnits int) []string {
	var out []string
	for _, c := range app.SplitBy(text, maxUnits, utf16Len) {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if maxUnits <= 0 || utf16Len(c) <= maxUnits {
			out = append(out, c)
			continue
		}
		out = append(out, hardWrap(c, maxUnits)...)
	}
	return out
}

func hardWrap(text string, maxUnits int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); {
		// advance end while the window fits
		end, units := start, 0
		for end < len(runes) {
			w := 1
			if runes[end] >= 0x10000 {
				w = 2
			}
			if units+w > maxUnits && end > start {
				break
			}
			units += w
			end++
		}
		if end >= len(runes) {
			if chunk := string(runes[start:]); strings.TrimSpace(chunk) != "" {
				out = append(out, chunk)
			}
			break
		}
		split := end
		for i := end; i > start+(end-start)/2; i-- {
			if runes[i-1] == '\n' {
				split = i
				break
			}
		}
		if chunk := strings.TrimRight(string(runes[start:split]), "\n"); chunk != "" {
			out = append(out, chunk)
		}
		start = split
	}
	return out
}
