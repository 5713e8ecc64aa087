package normalizer

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexText_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  FlexText
	}{
		{"plain string", `{"d":"A desert planet."}`, FlexText{Text: "A desert planet.", Valid: true}},
		{"value object", `{"d":{"type":"/type/text","value":"A desert planet."}}`, FlexText{Text: "A desert planet.", Valid: true}},
		{"object without value", `{"d":{"type":"/type/text"}}`, FlexText{}},
		{"null", `{"d":null}`, FlexText{}},
		{"absent", `{}`, FlexText{}},
		{"number ignored", `{"d":42}`, FlexText{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc struct {
				D FlexText `json:"d"`
			}

			require.NoError(t, json.Unmarshal([]byte(tt.input), &doc))
			assert.Equal(t, tt.want, doc.D)
		})
	}
}

func TestFlexText_Helpers(t *testing.T) {
	set := FlexText{Text: "bio", Valid: true}
	unset := FlexText{}

	assert.Equal(t, "bio", set.OrDefault(DefaultDescription))
	assert.Equal(t, DefaultDescription, unset.OrDefault(DefaultDescription))
	assert.Nil(t, unset.Ptr())
	require.NotNil(t, set.Ptr())
	assert.Equal(t, "bio", *set.Ptr())

	data, err := json.Marshal(struct {
		A FlexText `json:"a"`
		B FlexText `json:"b"`
	}{A: set, B: unset})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"bio","b":null}`, string(data))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		id    string
		want  string
	}{
		{"Dune", "OL893415W", "dune-OL893415W"},
		{"The Hitchhiker's Guide to the Galaxy", "OL1W", "the-hitchhikers-guide-to-the-galaxy-OL1W"},
		{"Dune  -- Messiah!", "OL2W", "dune-messiah-OL2W"},
		{"", "OL3W", "no-title-OL3W"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.title, tt.id))
		})
	}
}

func TestExtractYear(t *testing.T) {
	year := ExtractYear("August 1, 1965")
	require.NotNil(t, year)
	assert.Equal(t, "1965", *year)

	year = ExtractYear("1965-08-01")
	require.NotNil(t, year)
	assert.Equal(t, "1965", *year)

	assert.Nil(t, ExtractYear("unknown"))
	assert.Nil(t, ExtractYear(""))
}

func TestEnsureScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"//images.igdb.com/x.jpg", "https://images.igdb.com/x.jpg"},
		{"store.steampowered.com/app/1", "https://store.steampowered.com/app/1"},
		{"http://example.com", "http://example.com"},
		{"https://example.com", "https://example.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EnsureScheme(tt.in), tt.in)
	}
}

func TestStringHelpers(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeWhitespace("  a \n b\t c "))
	assert.Equal(t, "héll...", Truncate("héllo", 4))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty())
	assert.Nil(t, StringPtr(""))
	assert.Nil(t, First(nil))
	assert.Equal(t, "x", *First([]string{"x", "y"}))
	assert.Equal(t, []int{}, NonNil[int](nil))
	assert.True(t, IsDigits("603"))
	assert.False(t, IsDigits("tt0133093"))
	assert.Equal(t, "603", Itoa(603))
}
