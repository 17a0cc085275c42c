package osmbuf

import "errors"

// ErrBufferFull is returned by Buffer.ReserveSpace when the requested
// span does not fit in a non-growable buffer.
var ErrBufferFull = errors.New("osmbuf: buffer full")

// ErrInvalidArgument is returned for a negative ReserveSpace size, a
// Commit on an unaligned written watermark, or an AddItem whose Item
// size is not a multiple of the alignment. A full external buffer
// reports ErrBufferFull instead.
var ErrInvalidArgument = errors.New("osmbuf: invalid argument")

// FormatError indicates malformed input: unbalanced XML, a bad varint,
// a blob that exceeds the maximum uncompressed size, a raw_size mismatch
// after inflate, an unknown required PBF feature, or truncated input.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return "osmbuf: format error: " + e.Msg + ": " + e.Err.Error()
	}
	return "osmbuf: format error: " + e.Msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func NewFormatError(msg string, err error) error {
	return &FormatError{Msg: msg, Err: err}
}

// LogicError indicates Builder misuse: a non-LIFO Finish, NewChild or
// Write on a Builder that is not the innermost open one, a Commit while
// a Builder is still open, or typed-builder calls out of order. Unlike
// the other error
// kinds this is a programming error; callers that hit it have a bug,
// not bad input.
type LogicError struct {
	Msg string
}

func (e *LogicError) Error() string { return "osmbuf: logic error: " + e.Msg }
