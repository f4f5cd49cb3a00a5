package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHost(t *testing.T) {
	tests := map[string]string{
		"mc.example.com":     "mc.example.com",
		"MC.Example.COM":     "mc.example.com",
		"mc.example.com.":    "mc.example.com",
		"  Play.Example.net ": "play.example.net",
		"":                   "",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeHost(in), in)
	}
}

func TestDefaultPort(t *testing.T) {
	assert.Equal(t, DefaultJavaPort, Java.DefaultPort(false))
	assert.Equal(t, DefaultJavaPort, Java.DefaultPort(true))
	assert.NotEqual(t, Bedrock.DefaultPort(false), Bedrock.DefaultPort(true))
}
