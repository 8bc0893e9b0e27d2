package app

import (
	"strings"
	"unicode/utf8"
)

// Split packs whole blocks (separated by BlockSeparator) into chunks of at most max runes.
// strings.Join(chunks, BlockSeparator) always reproduces text. A block longer than max
// becomes its own oversized chunk; callers that cannot send it must cut it themselves.
// Empty text yields no chunks; max <= 0 disables splitting.
func Split(text string, max int) []string {
	return SplitBy(text, max, utf8.RuneCountInString)
}

// SplitBy is Split with a caller-supplied length measure (e.g. UTF-16 code units).
func SplitBy(text string, max int, size func(string) int) []string {
	if text == "" {
		return nil
	}
	if max <= 0 {
		return []string{text}
	}
	sepLen := size(BlockSeparator)
	blocks := strings.Split(text, BlockSeparator)

	var (
		out    []string
		cur    strings.Builder
		curLen int
	)
	cur.WriteString(blocks[0])
	curLen = size(blocks[0])
	for _, b := range blocks[1:] {
		n := size(b)
		if curLen+sepLen+n <= max {
			cur.WriteString(BlockSeparator)
			cur.WriteString(b)
			curLen += sepLen + n
			continue
		}
		out = append(out, cur.String())
		cur.Reset()
		cur.WriteString(b)
		curLen = n
	}
	return append(out, cur.String())
}
