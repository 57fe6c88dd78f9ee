// Package undertone maps chroma summaries of skin regions to undertone labels.
package undertone

import (
	"fmt"
	"strings"
)

// Label is the terminal result of analyzing one frame.
type Label int

const (
	NoSkin Label = iota
	Warm
	Cool
	Neutral
	// Error marks a frame whose analysis faulted. Classify never returns it.
	Error
)

var labelNames = map[Label]string{
	NoSkin:  "NO_SKIN",
	Warm:    "WARM",
	Cool:    "COOL",
	Neutral: "NEUTRAL",
	Error:   "ERROR",
}

func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// ParseLabel parses a label name case-insensitively. "NO SKIN" and
// "NO-SKIN" are accepted as spellings of NO_SKIN.
func ParseLabel(s string) (Label, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for l, name := range labelNames {
		if name == norm {
			return l, nil
		}
	}
	return NoSkin, fmt.Errorf("unknown undertone label %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
