package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFont(t *testing.T) {
	font := DefaultFont()
	require.NotNil(t, font)

	assert.NotEqual(t, 0, int(font.Index('A')))
}
