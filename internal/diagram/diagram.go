// Package diagram holds the Mermaid building blocks shared by the domain
// diagram generators: node ID sanitisation, label escaping, and the common
// color palette.
package diagram

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Colors is the shared palette keyed by semantic role, used for consistent
// styling across domains.
var Colors = map[string]string{
	// Hospital types
	"tertiary":  "#4CAF50",
	"community": "#2196F3",
	"regional":  "#9C27B0",
	"specialty": "#E91E63",
	"rural":     "#FF9800",
	"default":   "#607D8B",

	// Status colors
	"start":     "#4CAF50",
	"end":       "#F44336",
	"highlight": "#FFD700",

	// Service colors
	"service": "#673AB7",
}

// SanitizeNodeID converts an entity name to a valid Mermaid node ID: the
// first letter of each word plus a short hash for uniqueness, e.g.
// "Children's Mercy Kansas City" -> "CMKC_f9e3".
func SanitizeNodeID(name string) string {
	clean := strings.NewReplacer("'", "", ".", "", "-", " ").Replace(name)

	var initials strings.Builder
	for _, word := range strings.Fields(clean) {
		for _, r := range word {
			initials.WriteString(strings.ToUpper(string(r)))
			break
		}
	}

	sum := md5.Sum([]byte(name))
	return initials.String() + "_" + hex.EncodeToString(sum[:])[:4]
}

// EscapeLabel escapes characters that break Mermaid label syntax.
func EscapeLabel(text string) string {
	return strings.NewReplacer(`"`, "'", "<", "&lt;", ">", "&gt;").Replace(text)
}

// Style returns a Mermaid style string for a palette key, e.g.
// "fill:#4CAF50,color:#fff". The highlight color keeps dark text for
// contrast.
func Style(colorKey string) string {
	color, ok := Colors[colorKey]
	if !ok {
		color = Colors["default"]
	}
	textColor := "#fff"
	if colorKey == "highlight" {
		textColor = "#000"
	}
	return "fill:" + color + ",color:" + textColor
}

// HospitalStyle returns the style string for a hospital node. Rural status
// takes precedence over the facility type.
func HospitalStyle(hospitalType string, rural bool) string {
	if rural {
		return Style("rural")
	}
	switch hospitalType {
	case "tertiary", "community", "regional", "specialty":
		return Style(hospitalType)
	default:
		return Style("default")
	}
}

// Fence wraps a Mermaid document body in a markdown code fence.
func Fence(body string) string {
	return "```mermaid\n" + body + "\n```"
}
