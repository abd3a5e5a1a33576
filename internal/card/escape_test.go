package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`<script>alert("x")</script>`, "&lt;script&gt;alert(&quot;x&quot;)&lt;/script&gt;"},
		{"Tom & Jerry's", "Tom &amp; Jerry&apos;s"},
		{"&amp;", "&amp;amp;"},
		{"bell\x07char", "bellchar"},
		{"bad\xffutf8", "bad\uFFFDutf8"},
		{"emoji ⚡ ok", "emoji ⚡ ok"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in), tt.in)
	}
}
