package obd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		mode byte
		pid  byte
		want []byte
	}{
		{
			name: "typical RPM reply",
			raw:  "41 0C 0B B8",
			mode: 0x01, pid: 0x0C,
			want: []byte{0x0B, 0xB8},
		},
		{
			name: "reply with CR LF and prompt",
			raw:  "41 0C\r0B B8\r\r>",
			mode: 0x01, pid: 0x0C,
			want: []byte{0x0B, 0xB8},
		},
		{
			name: "command echo before reply",
			raw:  "010C\r41 0C 1A F8\r>",
			mode: 0x01, pid: 0x0C,
			want: []byte{0x1A, 0xF8},
		},
		{
			name: "searching chatter is ignored",
			raw:  "SEARCHING...\r41 05 64\r>",
			mode: 0x01, pid: 0x05,
			want: []byte{0x64},
		},
		{
			name: "lowercase reply",
			raw:  "41 0c 0b b8",
			mode: 0x01, pid: 0x0C,
			want: []byte{0x0B, 0xB8},
		},
		{
			name: "NO DATA",
			raw:  "NO DATA",
			mode: 0x01, pid: 0x0C,
			want: nil,
		},
		{
			name: "empty reply",
			raw:  "",
			mode: 0x01, pid: 0x0C,
			want: nil,
		},
		{
			name: "question mark",
			raw:  "?",
			mode: 0x01, pid: 0x0C,
			want: nil,
		},
		{
			name: "wrong PID after response mode",
			raw:  "41 0D 64",
			mode: 0x01, pid: 0x0C,
			want: nil,
		},
		{
			name: "response mode without payload",
			raw:  "41 0C",
			mode: 0x01, pid: 0x0C,
			want: nil,
		},
		{
			name: "mode 09 VIN frame",
			raw:  "49 02 01 31 47 31",
			mode: 0x09, pid: 0x02,
			want: []byte{0x01, 0x31, 0x47, 0x31},
		},
		{
			name: "garbage tokens only",
			raw:  "UNABLE TO CONNECT",
			mode: 0x01, pid: 0x0C,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePayload(tt.raw, tt.mode, tt.pid))
		})
	}
}

func TestHexTokensFiltersChatter(t *testing.T) {
	got := hexTokens("010C\rSEARCHING...\r41 0C 0B B8 \r\r>")
	// "41" onwards plus the 4-hex echo is dropped ("010C" is not a
	// 2-character token).
	assert.Equal(t, []string{"41", "0C", "0B", "B8"}, got)
}
