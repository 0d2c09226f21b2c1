package upload

import (
	"mime"
	"path/filepath"
	"strings"
)

type audioFormat struct {
	ext         string
	contentType string
	mimes       []string
}

var audioFormats = []audioFormat{
	{".mp3", "audio/mpeg", []string{"audio/mpeg", "audio/mp3", "audio/mpeg3", "audio/x-mpeg-3"}},
	{".wav", "audio/wav", []string{"audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave"}},
	{".ogg", "audio/ogg", []string{"audio/ogg", "application/ogg"}},
	{".m4a", "audio/mp4", []string{"audio/mp4", "audio/x-m4a", "audio/m4a"}},
	{".aac", "audio/aac", []string{"audio/aac", "audio/x-aac", "audio/aacp"}},
	{".flac", "audio/flac", []string{"audio/flac", "audio/x-flac"}},
	{".webm", "audio/webm", []string{"audio/webm"}},
	{".opus", "audio/opus", []string{"audio/opus"}},
	{".wma", "audio/x-ms-wma", []string{"audio/x-ms-wma"}},
}

var (
	formatByExt  = make(map[string]audioFormat, len(audioFormats))
	formatByMIME = make(map[string]audioFormat)
)

func init() {
	for _, f := range audioFormats {
		formatByExt[f.ext] = f
		for _, m := range f.mimes {
			formatByMIME[m] = f
		}
	}
}

func baseMIME(s string) string {
	if s == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(s); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// Allowed reports whether a file is accepted: its extension, the declared
// MIME type or the sniffed MIME type must be a known audio format.
func Allowed(filename, declaredMIME, sniffedMIME string) bool {
	if _, ok := formatByExt[strings.ToLower(filepath.Ext(filename))]; ok {
		return true
	}
	if _, ok := formatByMIME[baseMIME(declaredMIME)]; ok {
		return true
	}
	_, ok := formatByMIME[baseMIME(sniffedMIME)]
	return ok
}

// Extension picks the extension a stored file gets. A known extension of
// the original name wins, then the one implied by a MIME type.
func Extension(filename string, mimes ...string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := formatByExt[ext]; ok {
		return ext
	}
	for _, m := range mimes {
		if f, ok := formatByMIME[baseMIME(m)]; ok {
			return f.ext
		}
	}
	return ext
}

// ContentType is the type served for a stored file
func ContentType(filename string) string {
	if f, ok := formatByExt[strings.ToLower(filepath.Ext(filename))]; ok {
		return f.contentType
	}
	return "application/octet-stream"
}
