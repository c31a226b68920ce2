// Package wire implements the zcached-go binary protocol: opcode-tagged,
// length-prefixed requests and responses over a byte stream.
//
// Wire format (big-endian throughout):
//
//	Request:
//	  op:u8
//	  op=1 GET     key_len:u32  key:key_len
//	  op=2 SET     key_len:u32  key:key_len  value_len:u32  value:value_len
//	  op=3 DELETE  key_len:u32  key:key_len
//	  op=4 FLUSH   (no payload)
//	  op=0 or >4   invalid; always parsed as "need more bytes"
//
//	Response:
//	  op:u8
//	  op=1 GET     if value present: value_len:u32 value:value_len; else frame ends after op
//	  op=2 SET     (no payload)
//	  op=3 DELETE  (no payload)
//	  op=4 FLUSH   (no payload)
//
// Opcode 0 is reserved: servers allocate zero-filled read buffers and run the
// parser over a prefix of one, so op=0 must mean "not yet filled" rather than
// a protocol error. The same reasoning applies to a zero-length mandatory
// string field. Both cases, and any opcode above 4, report ErrIncomplete
// rather than ErrMalformed.
package wire

import (
	"encoding/binary"
	"errors"
	"unicode/utf8"
)

// Opcode identifies the kind of frame.
type Opcode uint8

const (
	opInvalid Opcode = 0
	OpGet     Opcode = 1
	OpSet     Opcode = 2
	OpDelete  Opcode = 3
	OpFlush   Opcode = 4
)

const lenFieldSize = 4 // u32 big-endian

// ErrIncomplete means the supplied bytes do not yet contain a full frame.
// This is a normal, expected control-flow signal, never a failure: it covers
// a short buffer, a zero/unknown opcode, and a zero-length mandatory field.
var ErrIncomplete = errors.New("wire: incomplete frame")

// ErrMalformed means a frame was structurally parsed but a string field was
// not valid UTF-8. This is fatal at connection scope.
var ErrMalformed = errors.New("wire: malformed frame")

// Request is a tagged command value.
type Request struct {
	Op    Opcode
	Key   string
	Value string // only meaningful for OpSet
}

// Response is a tagged acknowledgement value.
type Response struct {
	Op       Opcode
	Value    string // only meaningful for OpGet
	HasValue bool   // only meaningful for OpGet
}

func GetRequest(key string) Request             { return Request{Op: OpGet, Key: key} }
func SetRequest(key, value string) Request      { return Request{Op: OpSet, Key: key, Value: value} }
func DeleteRequest(key string) Request          { return Request{Op: OpDelete, Key: key} }
func FlushRequest() Request                     { return Request{Op: OpFlush} }

func GetResponse(value string, ok bool) Response {
	return Response{Op: OpGet, Value: value, HasValue: ok}
}
func SetResponse() Response    { return Response{Op: OpSet} }
func DeleteResponse() Response { return Response{Op: OpDelete} }
func FlushResponse() Response  { return Response{Op: OpFlush} }

// readElement reads a length-prefixed UTF-8 string starting at buf[*cursor].
// It returns the decoded string, advances *cursor past it, and reports
// ErrIncomplete if buf does not yet hold the whole element (including the
// "length field present but zero" case, which the wire format treats the
// same as "not yet filled").
func readElement(buf []byte, cursor *int) (string, error) {
	if len(buf) < *cursor+lenFieldSize {
		return "", ErrIncomplete
	}
	n := binary.BigEndian.Uint32(buf[*cursor : *cursor+lenFieldSize])
	if n == 0 {
		return "", ErrIncomplete
	}
	start := *cursor + lenFieldSize
	end := start + int(n)
	if end < start || len(buf) < end { // end<start guards 32-bit overflow of int on some platforms
		return "", ErrIncomplete
	}
	if !utf8.Valid(buf[start:end]) {
		return "", ErrMalformed
	}
	*cursor = end
	return string(buf[start:end]), nil
}

// DecodeRequest attempts to parse one request frame from the head of buf.
// It returns the parsed request and the number of bytes it consumed, or
// ErrIncomplete/ErrMalformed per the package doc.
func DecodeRequest(buf []byte) (Request, int, error) {
	if len(buf) < 1 {
		return Request{}, 0, ErrIncomplete
	}
	op := Opcode(buf[0])
	cursor := 1

	switch op {
	case OpGet:
		key, err := readElement(buf, &cursor)
		if err != nil {
			return Request{}, 0, err
		}
		return Request{Op: OpGet, Key: key}, cursor, nil
	case OpSet:
		key, err := readElement(buf, &cursor)
		if err != nil {
			return Request{}, 0, err
		}
		value, err := readElement(buf, &cursor)
		if err != nil {
			return Request{}, 0, err
		}
		return Request{Op: OpSet, Key: key, Value: value}, cursor, nil
	case OpDelete:
		key, err := readElement(buf, &cursor)
		if err != nil {
			return Request{}, 0, err
		}
		return Request{Op: OpDelete, Key: key}, cursor, nil
	case OpFlush:
		return Request{Op: OpFlush}, cursor, nil
	default:
		// Covers opInvalid (zero-fill) and any opcode > OpFlush.
		return Request{}, 0, ErrIncomplete
	}
}

// DecodeResponse attempts to parse one response frame from the head of buf.
// It parses greedily for OpGet: a value-less GET response ends after the
// opcode, a value-carrying one has a length immediately after, and a
// truncated length/value yields ErrIncomplete rather than treating the
// missing value as "absent".
func DecodeResponse(buf []byte) (Response, int, error) {
	if len(buf) < 1 {
		return Response{}, 0, ErrIncomplete
	}
	op := Opcode(buf[0])
	switch op {
	case OpGet:
		if len(buf) == 1 {
			// No length bytes at all: a value-less GET response concludes
			// immediately after the opcode.
			return Response{Op: OpGet, HasValue: false}, 1, nil
		}
		if len(buf) < 1+lenFieldSize {
			// Part of a length prefix is present; the rest is still in flight.
			return Response{}, 0, ErrIncomplete
		}
		cursor := 1
		n := binary.BigEndian.Uint32(buf[cursor : cursor+lenFieldSize])
		cursor += lenFieldSize
		end := cursor + int(n)
		if end < cursor || len(buf) < end {
			return Response{}, 0, ErrIncomplete
		}
		if !utf8.Valid(buf[cursor:end]) {
			return Response{}, 0, ErrMalformed
		}
		return Response{Op: OpGet, Value: string(buf[cursor:end]), HasValue: true}, end, nil
	case OpSet:
		return Response{Op: OpSet}, 1, nil
	case OpDelete:
		return Response{Op: OpDelete}, 1, nil
	case OpFlush:
		return Response{Op: OpFlush}, 1, nil
	default:
		return Response{}, 0, ErrIncomplete
	}
}

// EncodeRequest appends the wire encoding of req to dst and returns the
// extended slice. Encoding is total: every request value maps to exactly one
// byte sequence that round-trips through DecodeRequest to an equal value.
func EncodeRequest(dst []byte, req Request) []byte {
	switch req.Op {
	case OpGet:
		dst = append(dst, byte(OpGet))
		dst = appendElement(dst, req.Key)
	case OpSet:
		dst = append(dst, byte(OpSet))
		dst = appendElement(dst, req.Key)
		dst = appendElement(dst, req.Value)
	case OpDelete:
		dst = append(dst, byte(OpDelete))
		dst = appendElement(dst, req.Key)
	case OpFlush:
		dst = append(dst, byte(OpFlush))
	}
	return dst
}

// EncodeResponse appends the wire encoding of resp to dst and returns the
// extended slice.
func EncodeResponse(dst []byte, resp Response) []byte {
	switch resp.Op {
	case OpGet:
		dst = append(dst, byte(OpGet))
		if resp.HasValue {
			dst = appendElement(dst, resp.Value)
		}
	case OpSet:
		dst = append(dst, byte(OpSet))
	case OpDelete:
		dst = append(dst, byte(OpDelete))
	case OpFlush:
		dst = append(dst, byte(OpFlush))
	}
	return dst
}

func appendElement(dst []byte, s string) []byte {
	var lenBuf [lenFieldSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, s...)
	return dst
}
