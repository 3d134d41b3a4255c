//go:build !windows

package wifi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfilesUnsupportedPlatform(t *testing.T) {
	_, err := Profiles(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestNetworksUnsupportedPlatform(t *testing.T) {
	_, err := Networks(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}
