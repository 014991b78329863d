package logger

// RingBuffer keeps the most recent lines written to a log file.
type RingBuffer struct {
	lines []string
	next  int // index the next line is written to
	count int // number of lines currently held
	seen  int // lines added since the last rotation
}

// NewRingBuffer creates a ring buffer holding up to capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{lines: make([]string, max(capacity, 1))}
}

// Cap returns the maximum number of lines held.
func (rb *RingBuffer) Cap() int {
	return len(rb.lines)
}

// Len returns the number of lines held.
func (rb *RingBuffer) Len() int {
	return rb.count
}

// Add appends a line, overwriting the oldest one when full.
func (rb *RingBuffer) Add(line string) {
	rb.lines[rb.next] = line
	rb.next = (rb.next + 1) % len(rb.lines)
	rb.count = min(rb.count+1, len(rb.lines))
	rb.seen++
}

// Lines returns the held lines from oldest to newest.
func (rb *RingBuffer) Lines() []string {
	if rb.count == 0 {
		return nil
	}

	result := make([]string, 0, rb.count)
	start := (rb.next - rb.count + len(rb.lines)) % len(rb.lines)

	for i := range rb.count {
		result = append(result, rb.lines[(start+i)%len(rb.lines)])
	}

	return result
}
