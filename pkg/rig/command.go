package rig

// Serial valve commands: a single letter per line, host to MCU.
var commandLetters = map[Channel]byte{
	Hold:  'H',
	Raise: 'R',
	Lower: 'L',
}

// Command returns the command line selecting ch.
func Command(ch Channel) (string, bool) {
	b, ok := commandLetters[ch]
	if !ok {
		return "", false
	}
	return string(b) + "\n", true
}

// CommandReader assembles command lines from serial bytes on the MCU side.
// A line holding anything other than exactly one command letter is dropped.
type CommandReader struct {
	pending byte
	invalid bool
}

// Feed consumes one byte and reports a channel once a valid line ends.
func (c *CommandReader) Feed(b byte) (Channel, bool) {
	switch b {
	case '\n', '\r':
		pending, invalid := c.pending, c.invalid
		c.pending, c.invalid = 0, false
		if invalid || pending == 0 {
			return Hold, false
		}
		return letterChannel(pending), true
	case ' ', '\t':
		return Hold, false
	}

	if letterChannel(b) < 0 || c.pending != 0 {
		c.invalid = true
		return Hold, false
	}
	c.pending = b
	return Hold, false
}

func letterChannel(b byte) Channel {
	for ch, l := range commandLetters {
		if l == b {
			return ch
		}
	}
	return -1
}
