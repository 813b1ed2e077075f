package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	collection, key, err := Split("user/number/11952343456/agendamento/42")
	require.NoError(t, err)
	assert.Equal(t, "user/number/11952343456/agendamento", collection)
	assert.Equal(t, "42", key)

	for _, bad := range []string{"", "services", "/services", "services/", "a//b"} {
		_, _, err := Split(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestChangePath(t *testing.T) {
	assert.Equal(t, "cancelados/7", Change{Collection: "cancelados", Key: "7"}.Path())
}
