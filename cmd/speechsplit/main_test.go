package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	t.Setenv("SPEECHSPLIT_CONFIG", "")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no arguments", nil, 1},
		{"too many arguments", []string{"one", "two"}, 1},
		{"json flag without text", []string{"--json"}, 1},
		{"version", []string{"--version"}, 0},
		{"text", []string{"Hello world. Dr. Smith left!"}, 0},
		{"json", []string{"--json", "Hello world."}, 0},
		{"blank text", []string{"   "}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(tt.args))
		})
	}
}

func TestRun_BadConfig(t *testing.T) {
	t.Setenv("SPEECHSPLIT_CONFIG", "")
	t.Setenv("SPEECHSPLIT_CHUNKER_MAX_PHONEMES", "-1")
	assert.Equal(t, 1, run([]string{"Hello."}))
}
