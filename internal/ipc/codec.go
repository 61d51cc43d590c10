package ipc

import (
	"bytes"
	"errors"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNeedMoreData signals that the buffer held less than a full message;
// the transport must keep the bytes and wait for more (§4.1).
var ErrNeedMoreData = errors.New("ipc: buffer holds an incomplete message")

// Encode writes a single message in the wire codec's format. There is no
// explicit length prefix - framing falls out of msgpack's
// self-describing encoding on the read side.
func Encode(w io.Writer, msg msgpack.CustomEncoder) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(msg)
}

// DecodeClientMessage attempts to decode exactly one ClientMessage from
// the head of buf. It returns the message, the number of bytes consumed,
// and an error. ErrNeedMoreData means the caller should retry once more
// bytes have arrived; any other error means the stream is corrupt and
// the connection must be torn down.
func DecodeClientMessage(buf []byte) (ClientMessage, int, error) {
	r := bytes.NewReader(buf)
	dec := msgpack.NewDecoder(r)

	tag, err := decodeTag(dec)
	if err != nil {
		return nil, 0, err
	}

	var msg ClientMessage
	switch tag {
	case tagQueryConfiguration:
		msg = QueryConfiguration{}
	case tagQueryDisplays:
		msg = QueryDisplays{}
	case tagReorderModules:
		oldIdx, err := dec.DecodeInt64()
		if err != nil {
			return nil, 0, needMoreOrFail(err)
		}
		newIdx, err := dec.DecodeInt64()
		if err != nil {
			return nil, 0, needMoreOrFail(err)
		}
		msg = ReorderModules{OldIndex: int(oldIdx), NewIndex: int(newIdx)}
	case tagChangeConfiguration:
		idx, err := dec.DecodeInt64()
		if err != nil {
			return nil, 0, needMoreOrFail(err)
		}
		var cfg Structure
		if err := dec.Decode(&cfg); err != nil {
			return nil, 0, needMoreOrFail(err)
		}
		msg = ChangeConfiguration{ModuleIndex: int(idx), NewConfiguration: cfg}
	case tagAddModule:
		name, err := dec.DecodeString()
		if err != nil {
			return nil, 0, needMoreOrFail(err)
		}
		msg = AddModule{TypeName: name}
	case tagRemoveModule:
		idx, err := dec.DecodeInt64()
		if err != nil {
			return nil, 0, needMoreOrFail(err)
		}
		msg = RemoveModule{Index: int(idx)}
	default:
		return nil, 0, ErrUnknownVariant{Tag: tag}
	}

	consumed := len(buf) - r.Len()
	return msg, consumed, nil
}

// DecodeServerMessage is the server->client counterpart of
// DecodeClientMessage.
func DecodeServerMessage(buf []byte) (ServerMessage, int, error) {
	r := bytes.NewReader(buf)
	dec := msgpack.NewDecoder(r)

	tag, err := decodeTag(dec)
	if err != nil {
		return nil, 0, err
	}

	var msg ServerMessage
	switch tag {
	case tagUpdateConfiguration:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, 0, needMoreOrFail(err)
		}
		mods := make([]InstalledModule, 0, max0(n))
		for i := 0; i < n; i++ {
			name, err := dec.DecodeString()
			if err != nil {
				return nil, 0, needMoreOrFail(err)
			}
			var cfg Structure
			if err := dec.Decode(&cfg); err != nil {
				return nil, 0, needMoreOrFail(err)
			}
			mods = append(mods, InstalledModule{TypeName: name, Configuration: cfg})
		}
		msg = UpdateConfiguration{Configuration: Configuration{Modules: mods}}
	case tagUpdateDisplays:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, 0, needMoreOrFail(err)
		}
		displays := make([]Display, 0, max0(n))
		for i := 0; i < n; i++ {
			d, err := decodeDisplay(dec)
			if err != nil {
				return nil, 0, needMoreOrFail(err)
			}
			displays = append(displays, d)
		}
		msg = UpdateDisplays{Displays: displays}
	case tagHeartbeat:
		msg = Heartbeat{}
	default:
		return nil, 0, ErrUnknownVariant{Tag: tag}
	}

	consumed := len(buf) - r.Len()
	return msg, consumed, nil
}

func decodeTag(dec *msgpack.Decoder) (byte, error) {
	tag, err := dec.DecodeUint8()
	if err != nil {
		return 0, needMoreOrFail(err)
	}
	return tag, nil
}

// needMoreOrFail classifies a msgpack decode error as either "need more
// bytes" (the buffer was truncated mid-message) or a hard failure
// (corrupt data). This is the distinction §4.1/§9 require the codec to
// make so the transport knows whether to keep waiting or disconnect.
func needMoreOrFail(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ErrNeedMoreData
	}
	return err
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
