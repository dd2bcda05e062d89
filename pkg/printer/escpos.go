package printer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ESC/POS command bytes
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Text alignment
const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2
)

// Character sizes for GS !
const (
	FontNormal = 0x00
	FontDouble = 0x11 // double width and height
	FontWide   = 0x10
	FontTall   = 0x01
	FontHuge   = 0x33 // 4x width and height, used for the call number
)

// Common paper widths in characters
const (
	Width58mm = 32
	Width80mm = 48
)

// Document builds an ESC/POS byte stream for thermal printers
type Document struct {
	buf   bytes.Buffer
	width int
}

// NewDocument creates a new ESC/POS document with the given character width
func NewDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = Width58mm
	}
	d := &Document{width: charWidth}
	d.Init()
	return d
}

// Width returns the line width in characters
func (d *Document) Width() int {
	return d.width
}

// Init sends ESC @ (initialize printer)
func (d *Document) Init() *Document {
	d.buf.Write([]byte{ESC, '@'})
	return d
}

// LineFeed sends a line feed
func (d *Document) LineFeed() *Document {
	d.buf.WriteByte(LF)
	return d
}

// FeedLines sends n line feeds
func (d *Document) FeedLines(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(LF)
	}
	return d
}

// SetAlign sets text alignment
func (d *Document) SetAlign(align int) *Document {
	d.buf.Write([]byte{ESC, 'a', byte(align)})
	return d
}

// SetBold enables or disables bold text
func (d *Document) SetBold(on bool) *Document {
	b := byte(0)
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, 'E', b})
	return d
}

// SetFontSize sets the character size
func (d *Document) SetFontSize(size byte) *Document {
	d.buf.Write([]byte{GS, '!', size})
	return d
}

// Text writes a line of text followed by a line feed
func (d *Document) Text(s string) *Document {
	d.buf.WriteString(s)
	d.buf.WriteByte(LF)
	return d
}

// TextF writes a formatted line of text followed by a line feed
func (d *Document) TextF(format string, args ...interface{}) *Document {
	return d.Text(fmt.Sprintf(format, args...))
}

// Wrapped writes s split into lines no wider than the paper
func (d *Document) Wrapped(s string) *Document {
	line := ""
	for _, word := range strings.Fields(s) {
		switch {
		case line == "":
			line = word
		case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= d.width:
			line += " " + word
		default:
			d.Text(line)
			line = word
		}
	}
	if line != "" {
		d.Text(line)
	}
	return d
}

// Separator prints a full-width line of char
func (d *Document) Separator(char byte) *Document {
	d.buf.WriteString(strings.Repeat(string(char), d.width))
	d.buf.WriteByte(LF)
	return d
}

// Banner prints s centered in the largest font, then restores normal text
func (d *Document) Banner(s string) *Document {
	return d.SetAlign(AlignCenter).
		SetBold(true).
		SetFontSize(FontHuge).
		Text(s).
		SetFontSize(FontNormal).
		SetBold(false).
		SetAlign(AlignLeft)
}

// KeyValue prints a left-aligned key and right-aligned value on the same line
func (d *Document) KeyValue(key, value string) *Document {
	d.buf.WriteString(padBetween(key, value, d.width))
	d.buf.WriteByte(LF)
	return d
}

// ItemLine prints "qty x name" and a right-aligned total, truncating the name to fit
func (d *Document) ItemLine(qty int, name, total string) *Document {
	prefix := fmt.Sprintf("%dx ", qty)
	room := d.width - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(total) - 1
	if room < 1 {
		room = 1
	}
	d.buf.WriteString(padBetween(prefix+truncate(name, room), total, d.width))
	d.buf.WriteByte(LF)
	return d
}

// PartialCut sends the partial cut command
func (d *Document) PartialCut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x01})
	return d
}

// Bytes returns the accumulated ESC/POS byte stream
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

// Money formats cents as "R$ 1.234,50"
func Money(cents int64) string {
	sign := ""
	u := uint64(cents)
	if cents < 0 {
		sign = "-"
		u = uint64(-(cents + 1)) + 1
	}
	whole := u / 100
	frac := u % 100

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), frac)
}

func padBetween(left, right string, width int) string {
	spaces := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if spaces < 1 {
		spaces = 1
	}
	return left + strings.Repeat(" ", spaces) + right
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "."
}
