package upload

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLen keeps folder and file names well under the 255 byte limit of
// common file systems once the timestamp, voice and extension are appended.
const maxSlugLen = 100

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeTitle turns a song title into a file system safe slug:
// lowercase, diacritics stripped, every other run of characters collapsed to "_",
// at most maxSlugLen characters.
func NormalizeTitle(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, strings.ToLower(title))
	if err != nil {
		s = strings.ToLower(title)
	}
	s = strings.Trim(nonAlnum.ReplaceAllString(s, "_"), "_")
	// ASCII only from here on
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "_")
	}
	if s == "" {
		return "song"
	}
	return s
}

// FolderName is the per song directory, unique per millisecond
func FolderName(title string, now time.Time) string {
	return fmt.Sprintf("%s_%d", NormalizeTitle(title), now.UnixMilli())
}

// FileName is the final name of an uploaded file inside its folder
func FileName(title string, voiceType string, ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	base := NormalizeTitle(title)
	if voiceType == "" {
		return base + ext
	}
	return base + "_" + strings.ToLower(voiceType) + ext
}
