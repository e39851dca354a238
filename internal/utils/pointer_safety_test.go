package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-session-server/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, "abc", utils.Value(utils.Ptr("abc")))
	require.Equal(t, uint64(3), utils.Value(utils.Ptr(uint64(3))))
}

func TestNonZeroPtr(t *testing.T) {
	require.Nil(t, utils.NonZeroPtr(""))
	require.Nil(t, utils.NonZeroPtr(0))

	p := utils.NonZeroPtr("token")
	require.NotNil(t, p)
	require.Equal(t, "token", *p)
}
