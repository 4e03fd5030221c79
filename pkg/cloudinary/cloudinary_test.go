package cloudinary

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(Config{CloudName: "gema", APIKey: "key", APISecret: "secret", Folder: "gema/pitches/"}, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "gema"}, zerolog.Nop())
	require.Error(t, err)
}

func TestVideoURLPassesThroughAbsoluteURLs(t *testing.T) {
	svc := newTestService(t)

	url, err := svc.VideoURL("https://cdn.example.com/pitch.mp4")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/pitch.mp4", url)
}

func TestVideoURLResolvesPublicIDInsideFolder(t *testing.T) {
	svc := newTestService(t)

	url, err := svc.VideoURL("solarsack-pitch")
	require.NoError(t, err)
	require.Contains(t, url, "https://res.cloudinary.com/gema/video/upload/")
	require.Contains(t, url, "gema/pitches/solarsack-pitch")
}

func TestVideoURLKeepsExplicitPath(t *testing.T) {
	svc := newTestService(t)

	url, err := svc.VideoURL("round-1/solarsack")
	require.NoError(t, err)
	require.Contains(t, url, "round-1/solarsack")
	require.NotContains(t, url, "gema/pitches/round-1")
}

func TestVideoURLEmptyReference(t *testing.T) {
	svc := newTestService(t)

	url, err := svc.VideoURL("  ")
	require.NoError(t, err)
	require.Empty(t, url)
}
