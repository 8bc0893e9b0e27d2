package app

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"property_bot/internal/domain"
)

// BlockSeparator sits between atomic blocks; no block contains it.
const BlockSeparator = "\n\n"

const (
	notAvailable      = "N/A"
	unnamedProperty   = "Unnamed property"
	maxComplaintRunes = 200
)

// FormatProperty renders one property as an atomic block.
func FormatProperty(p domain.Property) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏠 %s (id: %s)\n", oneLine(orDefault(p.Name, unnamedProperty)), oneLine(p.ID))
	fmt.Fprintf(&sb, "   📍 Location: %s\n", oneLine(orDefault(p.Location, notAvailable)))
	fmt.Fprintf(&sb, "   ⭐ Airbnb: %s\n", FormatRating(p.Airbnb))
	fmt.Fprintf(&sb, "   ⭐ Booking: %s\n", FormatRating(p.Booking))
	fmt.Fprintf(&sb, "   💰 Price: %s", formatPrice(p.Price))
	if d := singleSpaced(p.Description); d != "" {
		sb.WriteString("\n   📝 ")
		sb.WriteString(strings.ReplaceAll(d, "\n", "\n      "))
	}
	return sb.String()
}

// FormatList joins property blocks with BlockSeparator.
func FormatList(props []domain.Property) string {
	blocks := make([]string, 0, len(props))
	for _, p := range props {
		blocks = append(blocks, FormatProperty(p))
	}
	return JoinBlocks(blocks...)
}

// FormatPropertyLine is the compact catalog form.
func FormatPropertyLine(p domain.Property) string {
	line := fmt.Sprintf("🏠 [%s] %s", oneLine(p.ID), oneLine(orDefault(p.Name, unnamedProperty)))
	if p.Location != "" {
		line += " - " + oneLine(p.Location)
	}
	return line
}

// FormatRanked renders a top-N table, one block per entry, medals for the podium.
func FormatRanked(entries []domain.RankedEntry) string {
	blocks := make([]string, 0, len(entries))
	for i, e := range entries {
		blocks = append(blocks, fmt.Sprintf("%s %s (id: %s)\n   ⭐ Avg: %.2f | Airbnb: %s | Booking: %s",
			medal(i+1),
			oneLine(orDefault(e.Property.Name, unnamedProperty)),
			oneLine(e.Property.ID),
			e.Score,
			FormatRating(e.Property.Airbnb),
			FormatRating(e.Property.Booking),
		))
	}
	return JoinBlocks(blocks...)
}

func FormatComplaint(c domain.Complaint) string {
	lines := []string{fmt.Sprintf("📋 Complaint #%s: %s", oneLine(c.ID), oneLine(orDefault(c.Title, "No title")))}
	lines = append(lines, "   Status: "+oneLine(orDefault(c.Status, "unknown")))
	if c.Severity != "" {
		lines = append(lines, "   Severity: "+oneLine(c.Severity))
	}
	if c.Date != "" {
		lines = append(lines, "   Date: "+oneLine(c.Date))
	}
	lines = append(lines, "   Description: "+truncateRunes(oneLine(orDefault(c.Text, "No description")), maxComplaintRunes))
	return strings.Join(lines, "\n")
}

// FormatComplaints renders complaints that all belong to one property.
func FormatComplaints(complaints []domain.Complaint) string {
	blocks := make([]string, 0, len(complaints))
	for _, c := range complaints {
		blocks = append(blocks, FormatComplaint(c))
	}
	return JoinBlocks(blocks...)
}

// FormatRating shows one decimal, or N/A.
func FormatRating(m domain.Measure) string {
	if !m.Known {
		return notAvailable
	}
	return fmt.Sprintf("%.1f", m.Value)
}

// JoinBlocks skips empty blocks.
func JoinBlocks(blocks ...string) string {
	kept := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, BlockSeparator)
}

func formatPrice(m domain.Measure) string {
	if !m.Known {
		return notAvailable
	}
	return fmt.Sprintf("%.2f", m.Value)
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return fmt.Sprintf("%d.", rank)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// oneLine flattens newlines so header rows stay single lines.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// singleSpaced drops blank lines so free text cannot contain BlockSeparator.
func singleSpaced(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	var kept []string
	for _, l := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
