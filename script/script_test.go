package script

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/maunakea/player"
)

func TestFormat(t *testing.T) {
	inputs := []player.Angle{4200, 99300, 99300, 99300, 99300, 99300, 55900, 55900}
	assert.Equal(t, "1,f,4.2\n5,f,99.3\n2,f,55.9\n", Format("f", inputs))

	assert.Equal(t, "1,f,4.002\n", Format("f", []player.Angle{4002}))
	assert.Equal(t, "3,f,90.0\n", Format("f", []player.Angle{90000, 90000, 90000}))
	assert.Equal(t, "", Format("f", nil))
}

func TestGroups(t *testing.T) {
	got := Groups([]player.Angle{1, 1, 2, 1})
	assert.Equal(t, []Group{{2, 1}, {1, 2}, {1, 1}}, got)
	assert.Empty(t, Groups(nil))
}

func TestEncodePartial(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePartial(&buf, "f", []player.Angle{180000}, "aborted: no surviving input"))
	assert.Equal(t, "# aborted: no surviving input\n1,f,180.0\n", buf.String())
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []player.Angle{4200, 4200, 359999, 0, 120}
	var buf bytes.Buffer
	require.NoError(t, EncodePartial(&buf, "F", inputs, "exhausted"))

	s, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, "F", s.Label)
	assert.Equal(t, "exhausted", s.Note)
	assert.Equal(t, inputs, s.Inputs)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"fields":  "1,f\n",
		"count":   "0,f,1.0\n",
		"angle":   "1,f,1.2345\n",
		"label":   "1,f,1.0\n1,g,2.0\n",
		"numeric": "x,f,1.0\n",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(text))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedScript))
		})
	}
}
