package proxy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetProxyRotates(t *testing.T) {
	m := NewManager([]string{"http://p1:8000", "http://p2:8000"}, nil)
	require.Equal(t, "http://p1:8000", m.GetProxy())
	require.Equal(t, "http://p2:8000", m.GetProxy())
	require.Equal(t, "http://p1:8000", m.GetProxy())
}

func TestGetProxyEmptyMeansDirect(t *testing.T) {
	m := NewManager(nil, nil)
	require.Empty(t, m.GetProxy())
}

func TestGetUserAgent(t *testing.T) {
	m := NewManager(nil, nil)
	require.Contains(t, defaultUserAgents, m.GetUserAgent())

	m = NewManager(nil, []string{"crawler-test/1.0"})
	require.Equal(t, "crawler-test/1.0", m.GetUserAgent())
}
