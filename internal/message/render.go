// Package message renders the small markup vocabulary used by the config
// message templates (colors, bold, hex colors) into the legacy §-code form
// the host chat understands, and applies literal placeholder substitutions.
package message

import (
	"log/slog"
	"strings"
)

// namedColors maps markup color names to legacy color codes.
var namedColors = map[string]byte{
	"black":        '0',
	"dark_blue":    '1',
	"dark_green":   '2',
	"dark_aqua":    '3',
	"dark_red":     '4',
	"dark_purple":  '5',
	"gold":         '6',
	"gray":         '7',
	"dark_gray":    '8',
	"blue":         '9',
	"green":        'a',
	"aqua":         'b',
	"red":          'c',
	"light_purple": 'd',
	"yellow":       'e',
	"white":        'f',
}

// Render converts markup tags in template to legacy codes. Unknown or
// malformed tags make the whole template fall back to its raw form with a
// warning; chat output must never be dropped over bad markup.
func Render(template string) string {
	out, ok := render(template)
	if !ok {
		slog.Warn("unparseable message markup, sending raw", "template", template)
		return template
	}
	return out
}

func render(template string) (string, bool) {
	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		open := strings.IndexByte(rest, '<')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), true
		}
		b.WriteString(rest[:open])
		rest = rest[open:]

		closeIdx := strings.IndexByte(rest, '>')
		if closeIdx < 0 {
			return "", false
		}
		tag := rest[1:closeIdx]
		rest = rest[closeIdx+1:]

		code, ok := renderTag(tag)
		if !ok {
			return "", false
		}
		b.WriteString(code)
	}
}

// renderTag translates one tag body (without angle brackets).
func renderTag(tag string) (string, bool) {
	closing := strings.HasPrefix(tag, "/")
	tag = strings.TrimPrefix(tag, "/")
	tag = strings.ToLower(strings.TrimSpace(tag))

	if closing {
		// Closing any formatting tag resets; legacy codes have no scoped
		// close, reset is the nearest equivalent.
		switch {
		case tag == "bold", tag == "b", tag == "italic", tag == "i",
			tag == "underlined", tag == "color", strings.HasPrefix(tag, "color:"):
			return "§r", true
		}
		if _, ok := namedColors[tag]; ok {
			return "§r", true
		}
		return "", false
	}

	switch tag {
	case "bold", "b":
		return "§l", true
	case "italic", "i":
		return "§o", true
	case "underlined":
		return "§n", true
	case "reset":
		return "§r", true
	}
	if code, ok := namedColors[tag]; ok {
		return "§" + string(code), true
	}
	if hex, ok := strings.CutPrefix(tag, "color:#"); ok {
		return hexCode(hex)
	}
	if name, ok := strings.CutPrefix(tag, "color:"); ok {
		if code, found := namedColors[name]; found {
			return "§" + string(code), true
		}
		return "", false
	}
	return "", false
}

// hexCode renders a six-digit hex color as the legacy §x sequence.
func hexCode(hex string) (string, bool) {
	if len(hex) != 6 {
		return "", false
	}
	var b strings.Builder
	b.WriteString("§x")
	for _, r := range strings.ToLower(hex) {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", false
		}
		b.WriteString("§")
		b.WriteRune(r)
	}
	return b.String(), true
}

// Substitute applies literal old/new replacement pairs to template.
// Pairs with an odd tail are ignored.
func Substitute(template string, pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		template = strings.ReplaceAll(template, pairs[i], pairs[i+1])
	}
	return template
}

// Strip removes all markup from template, for plain-text contexts (logs,
// window titles on hosts without rich text).
func Strip(template string) string {
	rendered := Render(template)
	var b strings.Builder
	for i := 0; i < len(rendered); i++ {
		if rendered[i] == 0xC2 && i+1 < len(rendered) && rendered[i+1] == 0xA7 {
			// UTF-8 encoded '§' followed by one code character.
			i += 2
			continue
		}
		b.WriteByte(rendered[i])
	}
	return b.String()
}
