// Package ui provides terminal styling for the CLI: colors, the star rating
// renderer, and the review card layout used by the feed commands.
package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/movierate/movierate/internal/model"
)

var (
	accent  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	success = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failure = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	muted   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	stars   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
)

// Plain disables all styling. Used for --no-color and non-TTY output.
func Plain() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// Title styles a heading.
func Title(s string) string { return accent.Render(s) }

// Success styles a confirmation line.
func Success(s string) string { return success.Render(s) }

// Error styles an error line.
func Error(s string) string { return failure.Render(s) }

// Muted styles secondary text.
func Muted(s string) string { return muted.Render(s) }

// Stars renders a rating as filled and empty stars with a half step,
// e.g. 3.5 becomes "★★★⯨☆".
func Stars(rating float64) string {
	full := int(rating)
	half := math.Mod(rating, 1) >= 0.5

	var b strings.Builder
	for i := 0; i < full; i++ {
		b.WriteRune('★')
	}
	if half {
		b.WriteRune('⯨')
	}
	for i := full + boolToInt(half); i < 5; i++ {
		b.WriteRune('☆')
	}
	return stars.Render(b.String())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ReviewCard renders one review as a bordered card for the feed.
func ReviewCard(r *model.Review) string {
	author := r.UserFullName
	if author == "" {
		author = r.UserID
	}

	header := fmt.Sprintf("%s  %s %s",
		accent.Render(r.MovieTitle),
		Stars(r.Rating),
		muted.Render(fmt.Sprintf("(%.1f)", r.Rating)),
	)
	byline := muted.Render(fmt.Sprintf("%s · %s", author, RelativeTime(r.Timestamp)))

	lines := []string{header, byline, "", r.ReviewText}
	if r.MovieGenre != "" {
		lines = append(lines, "", muted.Render(r.MovieGenre))
	}

	return card.Render(strings.Join(lines, "\n"))
}

// RelativeTime formats an epoch-milliseconds timestamp as a short
// human-readable age, e.g. "3h ago".
func RelativeTime(ms int64) string {
	d := time.Since(model.MillisToTime(ms))
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return model.MillisToTime(ms).Format("2006-01-02")
	}
}
