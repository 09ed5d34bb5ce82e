package downloads

import "strings"

const defaultFormatSelector = "bestvideo+bestaudio/best"

// Quality labels offered by the UI mapped to engine format selectors.
var formatSelectors = map[string]string{
	"Best (default)": defaultFormatSelector,
	"1080p":          "bestvideo[height<=1080]+bestaudio/best[height<=1080]",
	"720p":           "bestvideo[height<=720]+bestaudio/best[height<=720]",
	"480p":           "bestvideo[height<=480]+bestaudio/best[height<=480]",
	"Audio only":     "bestaudio/best",
}

// FormatSelector resolves a quality label, falling back to best.
func FormatSelector(quality string) string {
	if f, ok := formatSelectors[quality]; ok {
		return f
	}
	return defaultFormatSelector
}

// StreamCount derives how many separate transfers a format selector
// implies: a "+" combinator means video and audio are fetched apart and
// merged afterwards.
func StreamCount(formatSelector string) int {
	if strings.Contains(formatSelector, "+") {
		return 2
	}
	return 1
}
