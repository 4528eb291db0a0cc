package animetitles

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/anitrack/internal/domain"
)

const sampleDump = `<?xml version="1.0" encoding="UTF-8"?>
<animetitles>
	<anime aid="1">
		<title xml:lang="x-jat" type="main">Seikai no Monshou</title>
		<title xml:lang="en" type="official">Crest of the Stars</title>
		<title xml:lang="en">  Crest  </title>
		<title type="short">   </title>
	</anime>
	<anime aid="23">
		<title xml:lang="en" type="official">Cowboy Bebop</title>
		<title>Kaubōi Bibappu</title>
	</anime>
</animetitles>`

func TestParse(t *testing.T) {
	dump, err := Parse(strings.NewReader(sampleDump))
	require.NoError(t, err)

	assert.Equal(t, 2, dump.AnimeCount)
	assert.Equal(t, []domain.TitleRecord{
		{AID: 1, Lang: "x-jat", Type: "main", Title: "Seikai no Monshou"},
		{AID: 1, Lang: "en", Type: "official", Title: "Crest of the Stars"},
		{AID: 1, Lang: "en", Type: "synonym", Title: "Crest"},
		{AID: 23, Lang: "en", Type: "official", Title: "Cowboy Bebop"},
		{AID: 23, Lang: "x-jat", Type: "synonym", Title: "Kaubōi Bibappu"},
	}, dump.Records)
}

func TestParseGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleDump))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	dump, err := ParseGzip(&buf)
	require.NoError(t, err)
	assert.Len(t, dump.Records, 5)
}

func TestParse_Empty(t *testing.T) {
	dump, err := Parse(strings.NewReader(`<animetitles></animetitles>`))
	require.NoError(t, err)
	assert.Zero(t, dump.AnimeCount)
	assert.Empty(t, dump.Records)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "truncated", input: `<animetitles><anime aid="1"><title>abc`},
		{name: "wrong root", input: `<anime-list><anime aid="1"/></anime-list>`},
		{name: "bad aid", input: `<animetitles><anime aid="x"><title>abc</title></anime></animetitles>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))

			var parseErr *domain.ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParseGzip_NotGzip(t *testing.T) {
	_, err := ParseGzip(strings.NewReader(sampleDump))

	var parseErr *domain.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
