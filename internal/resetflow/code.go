package resetflow

import "strings"

// CodeLength is the number of OTP cells.
const CodeLength = 6

// Code is the six single-character cells of the OTP input.
type Code struct {
	slots [CodeLength]string
	focus int
}

// Set writes ch into cell i. Only the first character of ch is kept. It
// returns the cell that should have focus next.
func (c *Code) Set(i int, ch string) (int, error) {
	if i < 0 || i >= CodeLength {
		return c.focus, newError(KindValidation, "OTP cell must be between 1 and 6", nil)
	}

	c.slots[i] = firstChar(ch)
	c.focus = i
	if c.slots[i] != "" && i < CodeLength-1 {
		c.focus = i + 1
	}
	return c.focus, nil
}

// Paste fills cells from 0 with the trimmed text, at most six characters.
// Cells past the pasted length keep their value. Empty text changes nothing.
func (c *Code) Paste(text string) int {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return c.focus
	}

	n := min(len(runes), CodeLength)
	for i := range n {
		c.slots[i] = string(runes[i])
	}
	c.focus = n - 1
	return c.focus
}

func (c *Code) Clear() {
	c.slots = [CodeLength]string{}
	c.focus = 0
}

// String joins the cells; empty cells contribute nothing.
func (c *Code) String() string { return strings.Join(c.slots[:], "") }

func (c *Code) Slots() [CodeLength]string { return c.slots }

func (c *Code) Focus() int { return c.focus }

func firstChar(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
