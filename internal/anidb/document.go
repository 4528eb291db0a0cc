package anidb

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/varoOP/anitrack/internal/domain"
)

// Document is the anime document returned by the AniDB HTTP API
// (request=anime). It is cached as JSON.
type Document struct {
	XMLName      xml.Name `xml:"anime" json:"-"`
	ID           string   `xml:"id,attr" json:"id"`
	Restricted   string   `xml:"restricted,attr" json:"restricted,omitempty"`
	Type         string   `xml:"type" json:"type,omitempty"`
	EpisodeCount string   `xml:"episodecount" json:"episodecount,omitempty"`
	StartDate    string   `xml:"startdate" json:"startdate,omitempty"`
	EndDate      string   `xml:"enddate" json:"enddate,omitempty"`
	Titles       []Title  `xml:"titles>title" json:"titles,omitempty"`
	URL          string   `xml:"url" json:"url,omitempty"`
	Description  string   `xml:"description" json:"description,omitempty"`
	Picture      string   `xml:"picture" json:"picture,omitempty"`
}

// Title is one entry of the titles element
type Title struct {
	Lang string `xml:"lang,attr" json:"lang,omitempty"`
	Type string `xml:"type,attr" json:"type,omitempty"`
	Text string `xml:",chardata" json:"text"`
}

type errorDocument struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

// ParseDocument decodes an AniDB API response. A root <error> element is
// returned as *domain.UpstreamError.
func ParseDocument(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("empty document")
			}
			return nil, &domain.ParseError{Source: "anidb response", Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "error":
			var e errorDocument
			if err := dec.DecodeElement(&e, &start); err != nil {
				return nil, &domain.ParseError{Source: "anidb error response", Err: err}
			}
			return nil, &domain.UpstreamError{Code: e.Code, Message: strings.TrimSpace(e.Message)}

		case "anime":
			doc := &Document{}
			if err := dec.DecodeElement(doc, &start); err != nil {
				return nil, &domain.ParseError{Source: "anidb anime document", Err: err}
			}
			return doc, nil

		default:
			return nil, &domain.ParseError{
				Source: "anidb response",
				Err:    errors.Errorf("unexpected root element <%s>", start.Name.Local),
			}
		}
	}
}

// MainTitle returns the title flagged as main, if any
func (d *Document) MainTitle() (string, bool) {
	for _, t := range d.Titles {
		if t.Type == domain.TitleTypeMain {
			if text := strings.TrimSpace(t.Text); text != "" {
				return text, true
			}
		}
	}
	return "", false
}
