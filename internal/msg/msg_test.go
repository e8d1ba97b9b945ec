package msg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndentWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &IndentWriter{Indent: "  ", W: &buf}

	w.Write([]byte("Counting objects: 1\rCounting objects: 2\n"))
	w.Write([]byte("done"))
	w.Write([]byte(".\n"))

	assert.Equal(t, "  Counting objects: 1\r  Counting objects: 2\n  done.\n", buf.String())
}
