// Package twiml builds the provider's voice markup documents. Only the
// verbs this service emits are modelled.
package twiml

import (
	"encoding/xml"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

type Pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type Connect struct {
	XMLName xml.Name `xml:"Connect"`
	Stream  *Stream
}

type Stream struct {
	XMLName    xml.Name `xml:"Stream"`
	URL        string   `xml:"url,attr"`
	Parameters []Parameter
}

type Parameter struct {
	XMLName xml.Name `xml:"Parameter"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr"`
}

type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	URL     string   `xml:",chardata"`
}

type Dial struct {
	XMLName xml.Name `xml:"Dial"`
	Number  *Number
}

type Number struct {
	XMLName xml.Name `xml:"Number"`
	Value   string   `xml:",chardata"`
}

type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

func NewResponse() *Response {
	return &Response{}
}

func (r *Response) Pause(length int) *Response {
	r.Verbs = append(r.Verbs, Pause{Length: length})
	return r
}

// ConnectStream attaches a bidirectional media stream with optional custom
// parameters delivered in the stream's start frame.
func (r *Response) ConnectStream(url string, params ...Parameter) *Response {
	r.Verbs = append(r.Verbs, Connect{Stream: &Stream{URL: url, Parameters: params}})
	return r
}

func (r *Response) Redirect(url string) *Response {
	r.Verbs = append(r.Verbs, Redirect{URL: url})
	return r
}

func (r *Response) DialNumber(number string) *Response {
	r.Verbs = append(r.Verbs, Dial{Number: &Number{Value: number}})
	return r
}

func (r *Response) Hangup() *Response {
	r.Verbs = append(r.Verbs, Hangup{})
	return r
}

// Render serializes the document with the XML declaration the provider
// expects.
func (r *Response) Render() (string, error) {
	out, err := xml.Marshal(r)
	if err != nil {
		return "", err
	}
	return header + string(out), nil
}
