// Package animetitles reads the AniDB anime-titles XML dump.
package animetitles

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"
	"github.com/varoOP/anitrack/internal/domain"
)

const source = "anime titles dump"

type anime struct {
	AID    string  `xml:"aid,attr"`
	Titles []title `xml:"title"`
}

type title struct {
	Lang string `xml:"lang,attr"`
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

// Dump is the parsed title dump
type Dump struct {
	Records    []domain.TitleRecord
	AnimeCount int
}

// ParseGzip decompresses r and parses the dump it contains
func ParseGzip(r io.Reader) (*Dump, error) {
	zr, err := pgzip.NewReader(r)
	if err != nil {
		return nil, &domain.ParseError{Source: source, Err: errors.Wrap(err, "gzip")}
	}
	defer zr.Close()

	return Parse(zr)
}

// Parse streams the <animetitles> document in r. Titles without a language
// default to x-jat, titles without a type to synonym; titles that are blank
// after trimming are dropped.
func Parse(r io.Reader) (*Dump, error) {
	dec := xml.NewDecoder(r)
	dump := &Dump{}
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.ParseError{Source: source, Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "animetitles":
			sawRoot = true
		case "anime":
			var a anime
			if err := dec.DecodeElement(&a, &start); err != nil {
				return nil, &domain.ParseError{Source: source, Err: err}
			}

			aid, err := strconv.Atoi(strings.TrimSpace(a.AID))
			if err != nil {
				return nil, &domain.ParseError{Source: source, Err: errors.Wrapf(err, "invalid aid %q", a.AID)}
			}

			dump.AnimeCount++
			dump.Records = appendTitles(dump.Records, aid, a.Titles)
		default:
			if !sawRoot {
				return nil, &domain.ParseError{Source: source, Err: errors.Errorf("unexpected root element <%s>", start.Name.Local)}
			}
		}
	}

	if !sawRoot {
		return nil, &domain.ParseError{Source: source, Err: errors.New("missing <animetitles> root")}
	}

	return dump, nil
}

func appendTitles(records []domain.TitleRecord, aid int, titles []title) []domain.TitleRecord {
	for _, t := range titles {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}

		lang := t.Lang
		if lang == "" {
			lang = domain.DefaultTitleLang
		}
		typ := t.Type
		if typ == "" {
			typ = domain.DefaultTitleType
		}

		records = append(records, domain.TitleRecord{AID: aid, Lang: lang, Type: typ, Title: text})
	}
	return records
}
