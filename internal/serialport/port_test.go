package serialport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/aqmon/internal/config"
)

func TestOpen_EmptyDevice(t *testing.T) {
	_, err := Open(cfgpkg.SerialConfig{})
	assert.Error(t, err)
}

func TestOpen_MissingDevice(t *testing.T) {
	_, err := Open(cfgpkg.SerialConfig{Device: "/dev/aqmon-does-not-exist", Baud: 9600})
	assert.Error(t, err)
}

func TestOpenControl_FallsBackToStdio(t *testing.T) {
	cfg := cfgpkg.SerialConfig{}
	require.True(t, IsStdio(cfg))

	p, err := OpenControl(cfg)
	require.NoError(t, err)
	_, ok := p.(stdio)
	assert.True(t, ok)
	assert.NoError(t, p.Close())
}
