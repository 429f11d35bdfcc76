package protocol

import "bytes"

// Frame is one validated frame.
type Frame struct {
	Seq     uint8 // low nibble of the sequence byte
	Payload []byte
}

// EncodeFrame writes payload to out as one frame with sequence seq.
func EncodeFrame(out OutputBuffer, seq uint8, payload []byte) error {
	if len(payload) > FramePayloadMax {
		return ErrFrameTooLong
	}
	var frame [FrameLengthMax]byte
	n := FrameHeaderSize + len(payload)
	frame[framePosLen] = uint8(n + FrameTrailerSize)
	frame[framePosSeq] = SeqDest | seq&SeqMask
	copy(frame[FrameHeaderSize:], payload)
	crc := CRC16(frame[:n])
	frame[n] = uint8(crc >> 8)
	frame[n+1] = uint8(crc)
	frame[n+2] = FrameValueSync
	out.Output(frame[:n+FrameTrailerSize])
	return nil
}

// FrameDecoder reassembles frames from a byte stream. After a bad frame it
// discards input up to the next sync byte.
type FrameDecoder struct {
	buf    *Ring
	synced bool
}

// NewFrameDecoder returns a decoder that can buffer a few whole frames.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{buf: NewRing(4 * FrameLengthMax), synced: true}
}

// Feed buffers as much of data as fits and returns the count taken. Call
// Next until it returns ErrShortFrame before feeding the rest.
func (d *FrameDecoder) Feed(data []byte) int {
	n, _ := d.buf.Write(data)
	return n
}

// Buffered returns the number of bytes waiting to be decoded.
func (d *FrameDecoder) Buffered() int {
	return d.buf.Len()
}

// Next returns the next frame. ErrShortFrame means more input is needed.
// Any other error reports a dropped frame; decoding may continue.
func (d *FrameDecoder) Next() (Frame, error) {
	for {
		data := d.buf.Peek()
		if !d.synced {
			i := bytes.IndexByte(data, FrameValueSync)
			if i < 0 {
				d.buf.Discard(len(data))
				return Frame{}, ErrShortFrame
			}
			d.buf.Discard(i + 1)
			d.synced = true
			continue
		}
		if len(data) > 0 && data[0] == FrameValueSync {
			d.buf.Discard(1)
			continue
		}
		if len(data) < FrameLengthMin {
			return Frame{}, ErrShortFrame
		}

		n := int(data[framePosLen])
		if n < FrameLengthMin || n > FrameLengthMax {
			d.synced = false
			return Frame{}, ErrBadLength
		}
		seq := data[framePosSeq]
		if seq&^SeqMask != SeqDest {
			d.synced = false
			return Frame{}, ErrBadSync
		}
		if len(data) < n {
			return Frame{}, ErrShortFrame
		}
		if data[n-1] != FrameValueSync {
			d.synced = false
			return Frame{}, ErrBadSync
		}
		crc := uint16(data[n-frameTrailerCRC])<<8 | uint16(data[n-frameTrailerCRC+1])
		if crc != CRC16(data[:n-FrameTrailerSize]) {
			d.synced = false
			return Frame{}, ErrBadCRC
		}

		f := Frame{
			Seq:     seq & SeqMask,
			Payload: append([]byte(nil), data[FrameHeaderSize:n-FrameTrailerSize]...),
		}
		d.buf.Discard(n)
		return f, nil
	}
}

// Reset drops buffered input.
func (d *FrameDecoder) Reset() {
	d.buf.Reset()
	d.synced = true
}
