package cnst

import "strings"

// VoiceType is the vocal part a song variant or a singer is tagged with
type VoiceType string

const (
	VoiceSoprano      VoiceType = "soprano"
	VoiceMezzoSoprano VoiceType = "mezzosoprano"
	VoiceAlto         VoiceType = "alto"
	VoiceTenor        VoiceType = "tenor"
	VoiceBaritone     VoiceType = "baritone"
	VoiceBass         VoiceType = "bass"
	VoiceChoir        VoiceType = "choir"
	VoiceOriginal     VoiceType = "original"
)

var VoiceTypes = []VoiceType{
	VoiceSoprano,
	VoiceMezzoSoprano,
	VoiceAlto,
	VoiceTenor,
	VoiceBaritone,
	VoiceBass,
	VoiceChoir,
	VoiceOriginal,
}

var voiceAliases = map[string]VoiceType{
	"mezzo":         VoiceMezzoSoprano,
	"mezzo_soprano": VoiceMezzoSoprano,
	"mezzo-soprano": VoiceMezzoSoprano,
	"contralto":     VoiceAlto,
	"bajo":          VoiceBass,
	"baritono":      VoiceBaritone,
	"tenor":         VoiceTenor,
	"coro":          VoiceChoir,
	"all":           VoiceChoir,
}

// ParseVoiceType normalizes user input into a known voice type
func ParseVoiceType(s string) (VoiceType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range VoiceTypes {
		if string(v) == s {
			return v, true
		}
	}
	v, ok := voiceAliases[s]
	return v, ok
}
