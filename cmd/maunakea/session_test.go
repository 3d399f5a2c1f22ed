package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/maunakea/player"
	"github.com/pthm-cable/maunakea/scan"
)

func TestWriteScript(t *testing.T) {
	inputs := []player.Angle{4200, 99300, 99300}

	tests := []struct {
		name string
		run  scan.Run
		want string
	}{
		{
			name: "success",
			run:  scan.Run{Status: scan.Success, Inputs: inputs},
			want: "1,f,4.2\n2,f,99.3\n",
		},
		{
			name: "aborted",
			run:  scan.Run{Status: scan.Aborted, Inputs: inputs, Err: errors.New("frame 3: no surviving input")},
			want: "# aborted: frame 3: no surviving input\n1,f,4.2\n2,f,99.3\n",
		},
		{
			name: "exhausted",
			run:  scan.Run{Status: scan.Exhausted, Inputs: inputs},
			want: "# exhausted\n1,f,4.2\n2,f,99.3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeScript(&buf, "f", tt.run))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
