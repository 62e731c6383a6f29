package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ogeth777/baseworld/internal/config"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCommand(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	cmd := &InitCmd{HomeFlag: HomeFlag{Home: home}}

	require.NoError(t, cmd.Execute(nil))
	_, err := os.Stat(config.Path(home))
	require.NoError(t, err)

	assert.ErrorIs(t, cmd.Execute(nil), config.ErrConfigExists)

	cmd.Force = true
	assert.NoError(t, cmd.Execute(nil))
}

func TestCommandsAreRegistered(t *testing.T) {
	parser := flags.NewParser(&Empty{}, flags.None)
	require.NoError(t, Register(context.Background(), parser, Init, Node, Watch, Paint, Claim, Version))

	for _, name := range []string{"init", "node", "watch", "paint", "claim", "version"} {
		assert.NotNil(t, parser.Find(name), name)
	}
}

func TestHomeDefaultsToDataDir(t *testing.T) {
	assert.Equal(t, "baseworld", filepath.Base(HomeFlag{}.root()))
	assert.Equal(t, "/srv/canvas", HomeFlag{Home: "/srv/canvas"}.root())
}
