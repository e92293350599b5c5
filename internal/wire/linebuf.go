package wire

import "strings"

// LineBuffer reassembles newline-terminated lines from arbitrarily split
// stream chunks. The trailing fragment of each Add call is carried over until
// a later chunk completes it or Flush drains it, so concatenating all Add
// inputs and splitting once yields exactly the lines handed out.
type LineBuffer struct {
	carry string
}

func NewLineBuffer() *LineBuffer {
	return &LineBuffer{}
}

// Add appends chunk to the carry-over and returns every complete line, in
// order, without the trailing newline. Partial trailing data is retained.
func (b *LineBuffer) Add(chunk string) []string {
	if chunk == "" {
		return nil
	}
	data := b.carry + chunk
	if !strings.Contains(data, "\n") {
		b.carry = data
		return nil
	}
	parts := strings.Split(data, "\n")
	b.carry = parts[len(parts)-1]
	return parts[:len(parts)-1]
}

// Flush returns the carry-over fragment and clears it. The second return is
// false when there was nothing pending.
func (b *LineBuffer) Flush() (string, bool) {
	if b.carry == "" {
		return "", false
	}
	rest := b.carry
	b.carry = ""
	return rest, true
}
