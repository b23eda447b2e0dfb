package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatterAmount(t *testing.T) {
	f := NewFormatter("USD", "en")
	require.Equal(t, "USD", f.Code())
	require.Contains(t, f.Amount(1121), "1,121")
}

func TestFormatterFallsBack(t *testing.T) {
	f := NewFormatter("NOPE", "xx-broken")
	require.Equal(t, "INR", f.Code())
	require.NotEmpty(t, f.Amount(10))
}
