package util_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"foosball/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound4(t *testing.T) {
	cases := []struct {
		in, expected float64
	}{
		{0, 0},
		{1.23456, 1.2346},
		{-1.23456, -1.2346},
		{4.78598, 4.786},
		{-0.00004, 0},
		{25, 25},
	}

	for _, v := range cases {
		assert.Equal(t, v.expected, util.Round4(v.in), v.in)
	}
}

func TestPublicMessage(t *testing.T) {
	msg, ok := util.PublicMessage(fmt.Errorf("wrapped: %w", util.ErrPublic("player is missing")))
	assert.True(t, ok)
	assert.Equal(t, "wrapped: player is missing", msg)

	_, ok = util.PublicMessage(errors.New("internal"))
	assert.False(t, ok)

	_, ok = util.PublicMessage(nil)
	assert.False(t, ok)
}

func TestConcatErrors(t *testing.T) {
	assert.NoError(t, util.ConcatErrors(nil))
	assert.NoError(t, util.ConcatErrors([]error{nil, nil}))
	assert.EqualError(t, util.ConcatErrors([]error{errors.New("a"), nil, errors.New("b")}), "a; b")
}

func TestUUIDAsBlob(t *testing.T) {
	id := util.NewUUIDAsBlob()
	assert.False(t, id.IsZero())
	assert.True(t, util.UUIDAsBlob{}.IsZero())

	parsed, err := util.ParseUUIDAsBlob(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = util.ParseUUIDAsBlob("nope")
	assert.Error(t, err)

	var scanned util.UUIDAsBlob
	v, err := id.Value()
	require.NoError(t, err)
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, id, scanned)
	assert.Error(t, scanned.Scan("text"))
}

func TestNullUUIDAsBlob(t *testing.T) {
	null := util.NewNullUUIDAsBlob(util.UUIDAsBlob{})
	assert.False(t, null.Valid)

	v, err := null.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	b, err := json.Marshal(null)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	id := util.NewUUIDAsBlob()
	b, err = json.Marshal(util.NewNullUUIDAsBlob(id))
	require.NoError(t, err)

	var decoded util.NullUUIDAsBlob
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.True(t, decoded.Valid)
	assert.Equal(t, id, decoded.UUID)

	require.NoError(t, json.Unmarshal([]byte("null"), &decoded))
	assert.False(t, decoded.Valid)
}

func TestTimeAsTimestamp(t *testing.T) {
	at := util.TimeAsTimestamp(time.Date(2020, 5, 11, 12, 30, 0, 0, time.UTC))

	v, err := at.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1589200200), v)

	var scanned util.TimeAsTimestamp
	require.NoError(t, scanned.Scan(int64(1589200200)))
	assert.True(t, at.Time().Equal(scanned.Time()))

	b, err := json.Marshal(at)
	require.NoError(t, err)
	assert.Equal(t, `"2020-05-11T12:30:00Z"`, string(b))

	var decoded util.TimeAsTimestamp
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.True(t, at.Time().Equal(decoded.Time()))

	assert.Equal(t, "2020-05-11", util.Date(at))
	assert.Equal(t, "2020-05-11 12h30 UTC", util.Datetime(at.Time()))
}
