package webload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripRemovesScriptsAndTags(t *testing.T) {
	html := `<html><head><script>var x = 1;</script></head><body><p>Hello <b>World</b></p></body></html>`
	got := strip(html)
	require.Equal(t, "Hello World", got)
}
