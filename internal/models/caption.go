package models

import "strings"

// MinCaptionLen is the trimmed caption length above which a caption is
// meaningful enough to lead a narrative.
const MinCaptionLen = 3

// MeaningfulCaption reports whether caption carries real text. Captions at
// or below MinCaptionLen runes ask for clarification instead.
func MeaningfulCaption(caption string) bool {
	return len([]rune(strings.TrimSpace(caption))) > MinCaptionLen
}
