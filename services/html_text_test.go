package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	raw := `<html><head><title>x</title><style>p{color:red}</style></head><body>
<h1>Weekly   Brief</h1>
<p>First line<br>second line</p>
<ul><li>one</li><li>two</li></ul>
<a href="https://example.com/story">Read more</a>
<script>alert(1)</script>
</body></html>`

	got := HTMLToText(raw)

	assert.Equal(t, "Weekly Brief\n\nFirst line\nsecond line\n\n- one\n- two\n\nRead more (https://example.com/story)", got)
}

func TestHTMLToText_PlainInput(t *testing.T) {
	assert.Equal(t, "just text", HTMLToText("  just   text  "))
	assert.Empty(t, HTMLToText(""))
}

func TestTidyLines(t *testing.T) {
	assert.Equal(t, "a\n\nb", tidyLines("\n\n  a  \n\n\n\t\nb\n\n"))
}
