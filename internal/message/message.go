// Package message defines the chat message model stored by the archive and
// its XML serialization.
//
// Only the parts of a message the archive reads are modelled: addressing,
// the text payloads, rich (XHTML-IM) content and the delayed delivery
// annotation. ArchiveID and ArchivedAt are populated by archive reads and are
// never serialized.
package message

import (
	"time"

	"github.com/roach88/jarchive/internal/jid"
)

// XML namespaces of the extension payloads.
const (
	NSXHTML = "http://jabber.org/protocol/xhtml-im"
	NSDelay = "urn:xmpp:delay"
)

// Message is a single chat message.
type Message struct {
	From    jid.JID `xml:"from,attr,omitempty"`
	To      jid.JID `xml:"to,attr,omitempty"`
	ID      string  `xml:"id,attr,omitempty"`
	Type    string  `xml:"type,attr,omitempty"`
	Subject string  `xml:"subject,omitempty"`
	Body    string  `xml:"body,omitempty"`
	Thread  string  `xml:"thread,omitempty"`

	// HTML is the rich content alternative of Body.
	HTML *HTML `xml:"http://jabber.org/protocol/xhtml-im html,omitempty"`

	// Delay records when the message was originally sent.
	Delay *Delay `xml:"urn:xmpp:delay delay,omitempty"`

	ArchiveID  int64     `xml:"-"`
	ArchivedAt time.Time `xml:"-"`
}

// HTML carries XHTML-IM content verbatim.
type HTML struct {
	Content string `xml:",innerxml"`
}

// Delay is the delayed delivery annotation.
type Delay struct {
	From  jid.JID   `xml:"from,attr,omitempty"`
	Stamp time.Time `xml:"stamp,attr"`
}

// HasContent reports whether m carries anything worth archiving: a body, a
// subject, a thread identifier or rich content.
func (m *Message) HasContent() bool {
	return m.Body != "" || m.Subject != "" || m.Thread != "" || m.HTML != nil
}

// EnsureDelay attaches a delay annotation stamped now if m has none, and sets
// the stamp to now if the annotation carries the zero time. m is modified in
// place.
func (m *Message) EnsureDelay(now time.Time) {
	if m.Delay == nil {
		m.Delay = &Delay{}
	}
	if m.Delay.Stamp.IsZero() {
		m.Delay.Stamp = now.UTC()
	}
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	c := *m
	if m.HTML != nil {
		h := *m.HTML
		c.HTML = &h
	}
	if m.Delay != nil {
		d := *m.Delay
		c.Delay = &d
	}
	return &c
}
