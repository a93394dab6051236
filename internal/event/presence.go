package event

// AvatarState is the display treatment derived from a presence state: a
// glyph, a short label, and a style name the UI maps to its own colors.
type AvatarState struct {
	Glyph string
	Label string
	Style string
}

var presenceStates = map[string]AvatarState{
	"AWAKE":    {Glyph: "🙂", Label: "Awake", Style: "neutral"},
	"CALM":     {Glyph: "😌", Label: "Calm", Style: "calm"},
	"SLEEPING": {Glyph: "😴", Label: "Sleeping", Style: "sleeping"},
}

// neutralAvatar is the treatment for unknown or missing presence states.
var neutralAvatar = AvatarState{Glyph: "🙂", Label: "Neutral", Style: "neutral"}

// ClassifyPresence maps a presence state to its display treatment. States
// outside the known set map to the neutral default.
func ClassifyPresence(state string) AvatarState {
	if s, ok := presenceStates[state]; ok {
		return s
	}
	return neutralAvatar
}
