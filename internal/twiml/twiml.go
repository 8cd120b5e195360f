// Package twiml builds the control documents returned to the telephony
// gateway. A document always carries at least one playable-audio-or-spoken
// element and exactly one of a record continuation or a hangup; Validate
// enforces that invariant so a malformed document can never reach the wire.
package twiml

import (
	"encoding/xml"
	"fmt"
)

// Play points the gateway at a synthesized audio file.
type Play struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

// Say makes the gateway speak with its built-in voice. This is the fallback
// path when the synthesis provider is unavailable.
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// Record asks the gateway to capture the caller and post the result back.
type Record struct {
	XMLName     xml.Name `xml:"Record"`
	Action      string   `xml:"action,attr"`
	Method      string   `xml:"method,attr"`
	MaxLength   int      `xml:"maxLength,attr"`
	Timeout     int      `xml:"timeout,attr"`
	FinishOnKey string   `xml:"finishOnKey,attr"`
	PlayBeep    bool     `xml:"playBeep,attr"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// ControlDocument is the single response type emitted per webhook event.
// Say and Closing are both <Say> elements on the wire, so the document
// marshals itself verb by verb instead of relying on struct tags: speech
// first, then the closing line, then the continuation or terminal action.
type ControlDocument struct {
	Play    *Play
	Say     *Say
	Closing *Say
	Record  *Record
	Hangup  *Hangup
}

func New() *ControlDocument {
	return &ControlDocument{}
}

// WithAudio attaches the utterance: the synthesized file when audioURL is
// set, otherwise the gateway voice speaking fallbackText.
func (d *ControlDocument) WithAudio(audioURL, fallbackText, language string) *ControlDocument {
	if audioURL != "" {
		d.Play = &Play{URL: audioURL}
	} else {
		d.Say = &Say{Language: language, Text: fallbackText}
	}
	return d
}

// WithRecord attaches the record continuation.
func (d *ControlDocument) WithRecord(actionURL string, maxSeconds, silenceSeconds int, finishKey string) *ControlDocument {
	d.Record = &Record{
		Action:      actionURL,
		Method:      "POST",
		MaxLength:   maxSeconds,
		Timeout:     silenceSeconds,
		FinishOnKey: finishKey,
		PlayBeep:    false,
	}
	return d
}

// WithHangup attaches the terminal action, optionally preceded by a closing
// line in the gateway voice.
func (d *ControlDocument) WithHangup(closingText, language string) *ControlDocument {
	if closingText != "" {
		d.Closing = &Say{Language: language, Text: closingText}
	}
	d.Hangup = &Hangup{}
	return d
}

// Validate checks the structural invariant: some speech, and exactly one of
// record or hangup.
func (d *ControlDocument) Validate() error {
	if d.Play == nil && d.Say == nil && d.Closing == nil {
		return fmt.Errorf("control document has no speech element")
	}
	hasRecord := d.Record != nil
	hasHangup := d.Hangup != nil
	if hasRecord == hasHangup {
		return fmt.Errorf("control document must carry exactly one of record or hangup")
	}
	return nil
}

// MarshalXML writes the verbs in document order inside <Response>.
func (d *ControlDocument) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "Response"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	var verbs []any
	if d.Play != nil {
		verbs = append(verbs, d.Play)
	}
	if d.Say != nil {
		verbs = append(verbs, d.Say)
	}
	if d.Closing != nil {
		verbs = append(verbs, d.Closing)
	}
	if d.Record != nil {
		verbs = append(verbs, d.Record)
	}
	if d.Hangup != nil {
		verbs = append(verbs, d.Hangup)
	}
	for _, v := range verbs {
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// Render serializes the document with the XML declaration the gateway
// expects. Render fails on an invalid document rather than emitting it.
func (d *ControlDocument) Render() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	body, err := xml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal control document: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
