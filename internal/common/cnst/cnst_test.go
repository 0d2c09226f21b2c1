package cnst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppConstants(t *testing.T) {
	assert.Equal(t, "choirhub", AppName)
	assert.Equal(t, "apiserver", CommandName)
}

func TestParseVoiceType(t *testing.T) {
	cases := map[string]VoiceType{
		"Soprano":       VoiceSoprano,
		" tenor ":       VoiceTenor,
		"mezzo-soprano": VoiceMezzoSoprano,
		"bajo":          VoiceBass,
		"CORO":          VoiceChoir,
	}
	for in, want := range cases {
		got, ok := ParseVoiceType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseVoiceType("kazoo")
	assert.False(t, ok)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("admin"))
	assert.True(t, ValidRole("singer"))
	assert.False(t, ValidRole("root"))
}
