package message

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

const elementName = "message"

// wire pins the root element name. Message itself carries no XMLName so that
// callers can build it with a plain composite literal.
type wire struct {
	XMLName xml.Name `xml:"message"`
	*Message
}

// Marshal serializes m to its XML form.
func Marshal(m *Message) (string, error) {
	if m == nil {
		return "", errors.New("marshal message: nil message")
	}
	data, err := xml.Marshal(wire{Message: m})
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	return string(data), nil
}

// Unmarshal parses a single <message/> element.
func Unmarshal(data string) (*Message, error) {
	m := &Message{}
	if err := xml.Unmarshal([]byte(data), &wire{Message: m}); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	return m, nil
}

// ReadAll decodes every top-level or nested <message/> element in r, in
// document order. Other elements are skipped, so a stream wrapper or a list
// of bare elements both work.
func ReadAll(r io.Reader) ([]*Message, error) {
	dec := xml.NewDecoder(r)
	messages := []*Message{}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return messages, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read messages: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != elementName {
			continue
		}

		m := &Message{}
		if err := dec.DecodeElement(&wire{Message: m}, &start); err != nil {
			return nil, fmt.Errorf("read messages: %w", err)
		}
		messages = append(messages, m)
	}
}

// ReadAllBytes is ReadAll over an in-memory document.
func ReadAllBytes(data []byte) ([]*Message, error) {
	return ReadAll(bytes.NewReader(data))
}
