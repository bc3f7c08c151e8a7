package export

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// DefaultTitle is used when neither the request nor the document names one.
const DefaultTitle = "Untitled"

const maxFilenameRunes = 200

// Artifact is the result of one export. It is not modified after Export
// returns it.
type Artifact struct {
	ID        uuid.UUID
	Format    Format
	Payload   []byte
	Filename  string
	MediaType string

	// Degraded lists the resource URLs that could not be resolved and were
	// replaced by a placeholder, sorted.
	Degraded []string

	CreatedAt time.Time
}

// IsDegraded reports whether any resource was replaced by a placeholder.
func (a *Artifact) IsDegraded() bool {
	return len(a.Degraded) > 0
}

// Filename returns "<title>.<ext>" with the title normalized to NFC and
// stripped of path separators, reserved characters and control characters.
func Filename(title string, f Format) string {
	return SanitizeTitle(title) + "." + f.Extension()
}

// SanitizeTitle makes title safe to use as a file name on common file
// systems. An empty result becomes DefaultTitle.
func SanitizeTitle(title string) string {
	title = norm.NFC.String(title)

	var sb strings.Builder
	space := false
	for _, r := range title {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			r = '-'
		case unicode.IsControl(r) || unicode.IsSpace(r):
			r = ' '
		}
		if r == ' ' {
			if space {
				continue
			}
			space = true
		} else {
			space = false
		}
		sb.WriteRune(r)
	}

	out := strings.Trim(sb.String(), " .")
	if runes := []rune(out); len(runes) > maxFilenameRunes {
		out = strings.TrimRight(string(runes[:maxFilenameRunes]), " .")
	}
	if out == "" {
		return DefaultTitle
	}
	return out
}
