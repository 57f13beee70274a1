package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "yaml", args: []string{"config", "--config", "../etc/"}, want: "title: restcore"},
		{name: "json", args: []string{"config", "--json", "--config", "../etc/"}, want: `"Title": "restcore"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() { configJSON = false })

			var out bytes.Buffer

			rootCmd.SetOut(&out)
			rootCmd.SetArgs(tt.args)

			require.NoError(t, rootCmd.Execute())
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"start", "models", "config"} {
		assert.True(t, names[name], name)
	}

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, startCmd.Flags().Lookup("dev"))
	assert.NotNil(t, modelsCmd.Flags().Lookup("sync"))
}
