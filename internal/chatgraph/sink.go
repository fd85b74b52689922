package chatgraph

// streamFinishedSentinel is the literal terminal chunk written at the end
// of a streaming chat response (§4.1.c, §6 "terminated by the literal
// `[stream_finished]`").
const streamFinishedSentinel = "[stream_finished]"

// Sink receives token deltas for one streaming chat turn. The `complete`
// node's user-visible model call writes to it, and so do the terminal error
// envelopes (model unreachable, upstream error, function calling not
// supported), which write their message and call Finish. Internal calls
// (rephrase, grade, discovery) and tool-result sub-streams never reach a
// Sink (§4.1.c).
type Sink interface {
	Write(delta string) error
	Finish() error
}

// nopSink discards every delta, used for unary ("completions") calls where
// the stream is consumed server-side and only the final envelope matters
// (§4.1.c "Unary: the stream is consumed server-side").
type nopSink struct{}

func (nopSink) Write(string) error { return nil }
func (nopSink) Finish() error      { return nil }

// ChannelSink forwards deltas and the terminal sentinel over a channel, the
// shape an HTTP handler drains into a chunked response body.
type ChannelSink struct {
	ch chan<- string
}

// NewChannelSink wraps ch. The caller owns closing ch after Finish.
func NewChannelSink(ch chan<- string) *ChannelSink {
	return &ChannelSink{ch: ch}
}

func (s *ChannelSink) Write(delta string) error {
	s.ch <- delta
	return nil
}

func (s *ChannelSink) Finish() error {
	s.ch <- streamFinishedSentinel
	return nil
}
