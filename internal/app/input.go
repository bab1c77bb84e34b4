package app

import (
	"bufio"
	"io"
	"sync"

	"github.com/dshills/tessera/internal/renderer/backend"
)

// KeyReader decodes key presses from a raw-mode byte stream. It serves as
// the event source of the term backend.
type KeyReader struct {
	events chan backend.Event
	done   chan struct{}
	eof    chan struct{}
	once   sync.Once
}

// NewKeyReader starts decoding r.
func NewKeyReader(r io.Reader) *KeyReader {
	k := &KeyReader{
		events: make(chan backend.Event, 32),
		done:   make(chan struct{}),
		eof:    make(chan struct{}),
	}
	go k.read(bufio.NewReader(r))
	return k
}

func (k *KeyReader) read(br *bufio.Reader) {
	defer close(k.eof)
	for {
		ev, err := decodeKey(br)
		if err != nil {
			return
		}
		if ev.Type == backend.EventNone {
			continue
		}
		select {
		case k.events <- ev:
		case <-k.done:
			return
		}
	}
}

// PollEvent waits for the next key. It returns EventNone once the reader
// is closed or the stream ends.
func (k *KeyReader) PollEvent() backend.Event {
	select {
	case ev := <-k.events:
		return ev
	case <-k.done:
		return backend.Event{}
	case <-k.eof:
		select {
		case ev := <-k.events:
			return ev
		default:
			return backend.Event{}
		}
	}
}

// PostEvent queues a synthetic event. It is dropped if the queue is full.
func (k *KeyReader) PostEvent(ev backend.Event) {
	select {
	case k.events <- ev:
	default:
	}
}

// Close stops delivering events.
func (k *KeyReader) Close() {
	k.once.Do(func() { close(k.done) })
}

func key(k backend.Key) backend.Event {
	return backend.Event{Type: backend.EventKey, Key: k}
}

// decodeKey reads one key. Escape sequences are recognised only when their
// bytes arrive together with the ESC.
func decodeKey(br *bufio.Reader) (backend.Event, error) {
	b, err := br.ReadByte()
	if err != nil {
		return backend.Event{}, err
	}
	switch b {
	case 0x03:
		return key(backend.KeyCtrlC), nil
	case 0x0c:
		return key(backend.KeyCtrlL), nil
	case '\r', '\n':
		return key(backend.KeyEnter), nil
	case '\t':
		return key(backend.KeyTab), nil
	case 0x1b:
		if br.Buffered() == 0 {
			return key(backend.KeyEscape), nil
		}
		return decodeEscape(br)
	}
	if b < 0x20 || b == 0x7f {
		return backend.Event{}, nil
	}
	if err := br.UnreadByte(); err != nil {
		return backend.Event{}, err
	}
	r, _, err := br.ReadRune()
	if err != nil {
		return backend.Event{}, err
	}
	return backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r}, nil
}

func decodeEscape(br *bufio.Reader) (backend.Event, error) {
	intro, err := br.ReadByte()
	if err != nil {
		return backend.Event{}, err
	}
	if intro != '[' && intro != 'O' {
		// Alt+key.
		return backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: rune(intro), Mod: backend.ModAlt}, nil
	}

	var params []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			return backend.Event{}, err
		}
		if c >= 0x40 && c <= 0x7e {
			return csiKey(string(params), c), nil
		}
		params = append(params, c)
	}
}

func csiKey(params string, final byte) backend.Event {
	switch final {
	case 'A':
		return key(backend.KeyUp)
	case 'B':
		return key(backend.KeyDown)
	case 'H':
		return key(backend.KeyHome)
	case 'F':
		return key(backend.KeyEnd)
	case '~':
		switch params {
		case "1", "7":
			return key(backend.KeyHome)
		case "4", "8":
			return key(backend.KeyEnd)
		case "5":
			return key(backend.KeyPageUp)
		case "6":
			return key(backend.KeyPageDown)
		}
	}
	return backend.Event{}
}
