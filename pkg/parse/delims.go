package parse

import "strings"

// Delims is the open/close tag marker pair.
type Delims struct {
	Open  string
	Close string
}

// DefaultDelims are the standard Mustache tag markers.
var DefaultDelims = Delims{Open: "{{", Close: "}}"}

// OrDefault substitutes the default marker for any empty half of d.
func (d Delims) OrDefault() Delims {
	if d.Open == "" {
		d.Open = DefaultDelims.Open
	}
	if d.Close == "" {
		d.Close = DefaultDelims.Close
	}
	return d
}

func (d Delims) String() string {
	return d.Open + " " + d.Close
}

// parseDelims reads the body of a `{{=open close=}}` tag.
func parseDelims(content string) (Delims, bool) {
	parts := strings.Fields(content)
	if len(parts) != 2 {
		return Delims{}, false
	}
	if strings.Contains(parts[0], "=") || strings.Contains(parts[1], "=") {
		return Delims{}, false
	}
	return Delims{Open: parts[0], Close: parts[1]}, true
}
