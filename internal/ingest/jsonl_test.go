package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONLTextFields(t *testing.T) {
	input := `{"ten_mon":"Bún chả","khau_vi":"đậm đà","gia":45000,"vung":"Bắc","nested":{"a":1}}

{"ten_mon":"Cao lầu","vung":"Trung"}
{"vung":"Nam"}
`
	docs, err := ReadJSONL(strings.NewReader(input), JSONLOptions{TextFields: []string{"ten_mon", "khau_vi", "gia"}})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "doc-0", docs[0].ID)
	assert.Equal(t, "ten_mon: Bún chả\nkhau_vi: đậm đà\ngia: 45000", docs[0].Text)
	assert.Equal(t, map[string]string{"vung": "Bắc", "text": docs[0].Text}, docs[0].Metadata)

	assert.Equal(t, "doc-1", docs[1].ID)
	assert.Equal(t, "ten_mon: Cao lầu", docs[1].Text)
}

func TestReadJSONLFallbackTextAndMetadataField(t *testing.T) {
	input := `{"page_content":"Phở là món nước","metadata":{"source":"wiki","rank":2,"tags":["x"]}}
{"text":"Bánh xèo giòn","city":"Huế","ok":true,"missing":null}`

	docs, err := ReadJSONL(strings.NewReader(input), JSONLOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Phở là món nước", docs[0].Text)
	assert.Equal(t, map[string]string{"source": "wiki", "rank": "2", "text": "Phở là món nước"}, docs[0].Metadata)

	assert.Equal(t, "Bánh xèo giòn", docs[1].Text)
	assert.Equal(t, map[string]string{"city": "Huế", "ok": "true", "missing": "", "text": "Bánh xèo giòn"}, docs[1].Metadata)
}

func TestReadJSONLRejectsInvalidLine(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{\"text\":\"a\"}\nnot json\n"), JSONLOptions{})
	assert.ErrorContains(t, err, "line 2")
}
