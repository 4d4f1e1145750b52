package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "separate value",
			args:         []string{"-c", "conf.json", "-a", "localhost"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "equals form",
			args:         []string{"--config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "several allowed flags keep order",
			args:         []string{"-a", "http://x/api", "-i", "30", "-z", "1"},
			allowedFlags: []string{"-a", "-i"},
			want:         []string{"-a", "http://x/api", "-i", "30"},
		},
		{
			name:         "next flag is not a value",
			args:         []string{"-c", "-a", "x"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "nothing allowed",
			args:         []string{"-x", "1", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "a.json", ConfigPathFrom([]string{"-a", "x", "-c", "a.json"}))
	assert.Equal(t, "b.json", ConfigPathFrom([]string{"-config=b.json"}))
	assert.Equal(t, "", ConfigPathFrom([]string{"-i", "5"}))

	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = []string{"afcli", "-c", "from-args.json"}
	assert.Equal(t, "from-args.json", ConfigPath())
}
