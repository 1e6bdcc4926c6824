// Package xmltv provides structures for parsing XMLTV guide data.
package xmltv

import (
	"encoding/xml"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Time holds a time parsed from the XMLTV timestamp format.
type Time struct {
	time.Time
}

// MarshalXMLAttr is used to marshal a Go time.Time into the XMLTV format.
func (t *Time) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{
		Name:  name,
		Value: t.Format("20060102150405 -0700"),
	}, nil
}

// UnmarshalXMLAttr is used to unmarshal a time in the XMLTV format to a time.Time.
func (t *Time) UnmarshalXMLAttr(attr xml.Attr) error {
	fmtStr := "20060102150405"
	if strings.Contains(attr.Value, " ") {
		fmtStr = "20060102150405 -0700"
	}
	t1, err := time.Parse(fmtStr, attr.Value)
	if err != nil {
		return err
	}

	*t = Time{t1}
	return nil
}

// TV is the root element of an XMLTV document.
type TV struct {
	XMLName           xml.Name    `xml:"tv"                                 json:"-"`
	Channels          []Channel   `xml:"channel"                            json:"channels"`
	Programmes        []Programme `xml:"programme"                          json:"programmes"`
	SourceInfoURL     string      `xml:"source-info-url,attr,omitempty"     json:"sourceInfoURL,omitempty"`
	SourceInfoName    string      `xml:"source-info-name,attr,omitempty"    json:"sourceInfoName,omitempty"`
	GeneratorInfoName string      `xml:"generator-info-name,attr,omitempty" json:"generatorInfoName,omitempty"`
	GeneratorInfoURL  string      `xml:"generator-info-url,attr,omitempty"  json:"generatorInfoURL,omitempty"`
}

// LoadXML decodes an XMLTV document from the given reader, handling
// non-UTF-8 charsets the way guide feeds in the wild require.
func (t *TV) LoadXML(f io.Reader) error {
	decoder := xml.NewDecoder(f)
	decoder.CharsetReader = charset.NewReaderLabel

	return decoder.Decode(&t)
}

// Channel details of a single guide channel.
type Channel struct {
	XMLName      xml.Name        `xml:"channel"        json:"-"`
	DisplayNames []CommonElement `xml:"display-name"   json:"displayNames"`
	Icons        []Icon          `xml:"icon,omitempty" json:"icons,omitempty"`
	URLs         []string        `xml:"url,omitempty"  json:"urls,omitempty"`
	ID           string          `xml:"id,attr"        json:"id,omitempty"`
}

// Programme details of a single programme transmission.
type Programme struct {
	XMLName      xml.Name        `xml:"programme"           json:"-"`
	Titles       []CommonElement `xml:"title"               json:"titles"`
	Descriptions []CommonElement `xml:"desc,omitempty"      json:"descriptions,omitempty"`
	Categories   []CommonElement `xml:"category,omitempty"  json:"categories,omitempty"`
	Icons        []Icon          `xml:"icon,omitempty"      json:"icons,omitempty"`
	Start        *Time           `xml:"start,attr"          json:"start"`
	Stop         *Time           `xml:"stop,attr,omitempty" json:"stop,omitempty"`
	Channel      string          `xml:"channel,attr"        json:"channel"`
}

// CommonElement element structure that is common, i.e. <display-name lang="en">ESPN</display-name>
type CommonElement struct {
	Lang  string `xml:"lang,attr,omitempty" json:"lang,omitempty"`
	Value string `xml:",chardata"           json:"value,omitempty"`
}

// Icon associated with the element that contains it.
type Icon struct {
	Source string `xml:"src,attr"              json:"source"`
	Width  int    `xml:"width,attr,omitempty"  json:"width,omitempty"`
	Height int    `xml:"height,attr,omitempty" json:"height,omitempty"`
}
