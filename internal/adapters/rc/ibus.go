package rc

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// FlySky iBus framing: 0x20 0x40, 14 little-endian channels, then a little-endian
// checksum equal to 0xFFFF minus the sum of every preceding byte.
const (
	ibusHeader1   = 0x20
	ibusHeader2   = 0x40
	IBusFrameSize = 2 + NumRawChannels*2 + 2
)

// ErrBadChecksum is reported for frames whose checksum does not match.
var ErrBadChecksum = errors.New("rc: ibus checksum mismatch")

type ibusState int

const (
	waitingForHeader1 ibusState = iota
	waitingForHeader2
	readingPayload
)

// IBusDecoder reads frames from a serial stream and pushes them into a Receiver.
type IBusDecoder struct {
	rx      *Receiver
	onError func(error)
}

func NewIBusDecoder(rx *Receiver, onError func(error)) *IBusDecoder {
	if onError == nil {
		onError = func(error) {}
	}
	return &IBusDecoder{rx: rx, onError: onError}
}

// Run decodes until ctx is done or the stream ends. A clean EOF returns nil.
func (d *IBusDecoder) Run(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
	state := waitingForHeader1
	var (
		frame [IBusFrameSize]byte
		idx   int
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("ibus read: %w", err)
		}

		switch state {
		case waitingForHeader1:
			if b == ibusHeader1 {
				frame[0] = b
				state = waitingForHeader2
			}
		case waitingForHeader2:
			if b == ibusHeader2 {
				frame[1] = b
				idx = 2
				state = readingPayload
			} else {
				state = waitingForHeader1
			}
		case readingPayload:
			frame[idx] = b
			idx++
			if idx < IBusFrameSize {
				continue
			}
			state = waitingForHeader1
			channels, err := DecodeIBusFrame(frame[:])
			if err != nil {
				d.onError(err)
				continue
			}
			d.rx.Update(channels)
		}
	}
}

// DecodeIBusFrame validates one complete frame and returns its channel values.
func DecodeIBusFrame(frame []byte) ([]uint16, error) {
	if len(frame) != IBusFrameSize {
		return nil, fmt.Errorf("rc: ibus frame is %d bytes, want %d", len(frame), IBusFrameSize)
	}
	if frame[0] != ibusHeader1 || frame[1] != ibusHeader2 {
		return nil, fmt.Errorf("rc: ibus bad header %#x %#x", frame[0], frame[1])
	}
	want := binary.LittleEndian.Uint16(frame[IBusFrameSize-2:])
	if got := IBusChecksum(frame[:IBusFrameSize-2]); got != want {
		return nil, fmt.Errorf("%w: got %#04x want %#04x", ErrBadChecksum, got, want)
	}
	channels := make([]uint16, NumRawChannels)
	for i := range channels {
		channels[i] = binary.LittleEndian.Uint16(frame[2+2*i:])
	}
	return channels, nil
}

// IBusChecksum computes the checksum over header and payload bytes.
func IBusChecksum(b []byte) uint16 {
	sum := uint16(0xFFFF)
	for _, v := range b {
		sum -= uint16(v)
	}
	return sum
}
