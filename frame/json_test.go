package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrameJSONRoundTrip(t *testing.T) {
	f := New()
	f.SetBytes([]byte("payload"))
	f.RoutingID = 7
	f.Group = "grp"
	f.Time = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	js := f.ToJSON(nil)

	out := New()
	err := out.FromJSON(js)
	require.NoError(t, err)
	require.Equal(t, f.Bytes(), out.Bytes())
	require.Equal(t, f.RoutingID, out.RoutingID)
	require.Equal(t, f.Group, out.Group)
	require.Equal(t, f.Time.Format(JSONTime), out.Time.Format(JSONTime))
}

func TestFrameJSONStripsDelimiterBit(t *testing.T) {
	f := Delimiter()
	js := f.ToJSON(nil)

	out := New()
	err := out.FromJSON(js)
	require.NoError(t, err)
	require.False(t, out.IsDelimiter())
}
