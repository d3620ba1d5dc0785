package royalty

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/model"
)

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "song_title", NormalizeHeader(` "Song  Title" `))
	assert.Equal(t, "revenue", NormalizeHeader("\ufeffRevenue"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, model.ReportKindRoyalty, Classify([]string{"country", "song_title", "platform", "revenue", "isrc"}))
	assert.Equal(t, model.ReportKindAudience, Classify([]string{"date", "listeners", "streams", "followers"}))
	assert.Equal(t, model.ReportKindUnknown, Classify([]string{"date", "listeners"}))
}

func TestParse_RoyaltyCSV(t *testing.T) {
	in := "Song Title,Platform,Country,Revenue,ISRC,Quantity\r\n" +
		`"Luna, Parte 2",Spotify,CO,12.5,USRC17607839,1000` + "\r\n" +
		"\r\n" +
		"Sol,Apple Music,MX,abc,,\r\n" +
		"Mar,Deezer,US,0.75,,\r\n"

	res, err := Parse(strings.NewReader(in), "artist-1")
	require.NoError(t, err)
	assert.Equal(t, model.ReportKindRoyalty, res.Kind)

	isrc, qty := "USRC17607839", 1000
	want := []model.RoyaltyRow{
		{ArtistID: "artist-1", SongTitle: "Luna, Parte 2", Platform: "Spotify", Country: "CO", Revenue: 12.5, ISRC: &isrc, Quantity: &qty},
		{ArtistID: "artist-1", SongTitle: "Mar", Platform: "Deezer", Country: "US", Revenue: 0.75},
	}
	if diff := cmp.Diff(want, res.Royalties); diff != "" {
		t.Errorf("royalties mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 4, res.Errors[0].Line)
	assert.Contains(t, res.Errors[0].Message, "invalid revenue")
	assert.Equal(t, 2, res.Rows())
}

func TestParse_AudienceTSV(t *testing.T) {
	in := "date\tlisteners\tstreams\tfollowers\n" +
		"2024-01-02\t10\t25\tn/a\n" +
		"2024-01-03T00:00:00Z\t11\t30.0\t7\n" +
		"yesterday\t1\t1\t1\n"

	res, err := Parse(strings.NewReader(in), "a")
	require.NoError(t, err)
	assert.Equal(t, model.ReportKindAudience, res.Kind)

	want := []model.AudienceRow{
		{ArtistID: "a", ReportDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Listeners: 10, Streams: 25},
		{ArtistID: "a", ReportDate: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Listeners: 11, Streams: 30, Followers: 7},
	}
	if diff := cmp.Diff(want, res.Audience); diff != "" {
		t.Errorf("audience mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, res.Errors, 1)
}

func TestParse_WhitespaceDelimited(t *testing.T) {
	in := "song_title platform country revenue\nHola Spotify AR 3.2\n"
	res, err := Parse(strings.NewReader(in), "a")
	require.NoError(t, err)
	require.Len(t, res.Royalties, 1)
	assert.Equal(t, "AR", res.Royalties[0].Country)
	assert.Equal(t, 3.2, res.Royalties[0].Revenue)
}

func TestParse_Unknown(t *testing.T) {
	res, err := Parse(strings.NewReader("foo,bar\n1,2\n"), "a")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, model.ReportKindUnknown, res.Kind)

	_, err = Parse(strings.NewReader("\n\n"), "a")
	assert.ErrorIs(t, err, ErrEmpty)
}
