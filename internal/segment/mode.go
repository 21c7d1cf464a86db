package segment

// Mode is a display mode of the colour demo.
type Mode string

const (
	ModeOriginal Mode = "original"
	ModeHSV      Mode = "hsv"
	ModeRed      Mode = "red"
	ModeGreen    Mode = "green"
	ModeBlue     Mode = "blue"
	ModeNonWhite Mode = "non_white"
)

var keyModes = map[rune]Mode{
	'r': ModeRed,
	'g': ModeGreen,
	'b': ModeBlue,
	'a': ModeNonWhite,
	'o': ModeOriginal,
	'h': ModeHSV,
}

// ModeForKey maps a key press to a mode.
func ModeForKey(key int) (Mode, bool) {
	m, ok := keyModes[rune(key)]
	return m, ok
}

// IsColor reports whether m selects a colour mask.
func (m Mode) IsColor() bool {
	return m != ModeOriginal && m != ModeHSV && m != ""
}
