// Package protocol implements the framed link between a motor controller and
// its host: VLQ-encoded messages carried in CRC16-checked frames.
package protocol

import "errors"

// Version is the wire protocol version reported in the status message.
const Version = 1

// Frame layout: length, sequence, payload, CRC16 (big endian), sync.
const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameLengthMin   = FrameHeaderSize + FrameTrailerSize
	FrameLengthMax   = 64
	FramePayloadMax  = FrameLengthMax - FrameLengthMin

	framePosLen     = 0
	framePosSeq     = 1
	frameTrailerCRC = 3

	FrameValueSync = 0x7E

	// The high nibble of the sequence byte is always SeqDest.
	SeqDest = 0x10
	SeqMask = 0x0F
)

// MessageMax is the capacity of a ScratchOutput.
const MessageMax = 256

var (
	// ErrShortFrame means the buffered bytes do not yet hold a whole frame.
	ErrShortFrame = errors.New("protocol: short frame")
	// ErrBadLength means the length byte is outside the valid range.
	ErrBadLength = errors.New("protocol: bad frame length")
	// ErrBadSync means the sequence or trailing sync byte is wrong.
	ErrBadSync = errors.New("protocol: bad sync")
	// ErrBadCRC means the frame checksum did not match.
	ErrBadCRC = errors.New("protocol: bad crc")

	ErrBufferTooSmall = errors.New("protocol: buffer too small")
	ErrFrameTooLong   = errors.New("protocol: payload too long for one frame")
	ErrUnknownMessage = errors.New("protocol: unknown message")
)
