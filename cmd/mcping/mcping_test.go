package main

import (
	"bytes"
	"encoding/json"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/mcstatus/internal/bedrock"
	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/query"
	"github.com/woozymasta/mcstatus/internal/vars"
)

func TestSplitTarget(t *testing.T) {
	cases := []struct {
		in   string
		flag uint16
		host string
		port uint16
	}{
		{"mc.example.com", 0, "mc.example.com", 0},
		{"mc.example.com:25570", 0, "mc.example.com", 25570},
		{"mc.example.com:25570", 25600, "mc.example.com", 25600},
		{"[2001:db8::1]:19133", 0, "2001:db8::1", 19133},
		{"2001:db8::1", 0, "2001:db8::1", 0},
		{"1.2.3.4", 19132, "1.2.3.4", 19132},
	}

	for _, tc := range cases {
		host, port, err := splitTarget(tc.in, tc.flag)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.host, host, tc.in)
		assert.Equal(t, tc.port, port, tc.in)
	}

	_, _, err := splitTarget("mc.example.com:99999", 0)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "A Minecraft Server", describe(json.RawMessage(`"A Minecraft Server"`)))
	assert.Equal(t, "Hello world!", describe(json.RawMessage(`{"text":"Hello ","extra":[{"text":"world"},{"text":"!"}]}`)))
	assert.Empty(t, describe(nil))
	assert.Empty(t, describe(json.RawMessage(`42`)))
}

func TestRenderJava(t *testing.T) {
	ping := 12 * time.Millisecond
	res := &query.JavaResult{
		Status:   `{"description":{"text":"Welcome"},"version":{"name":"1.20.1","protocol":763},"players":{"online":3,"max":100}}`,
		Ping:     &ping,
		Endpoint: models.Endpoint{Addr: netip.MustParseAddrPort("203.0.113.7:25566"), SRV: true},
	}

	var buf bytes.Buffer
	renderJava(&buf, res)
	out := buf.String()

	for _, want := range []string{"203.0.113.7:25566", "1.20.1", "763", "3/100", "Welcome", "12ms"} {
		assert.Contains(t, out, want)
	}

	buf.Reset()
	res.Status = "opaque"
	res.Ping = nil
	renderJava(&buf, res)
	assert.Contains(t, buf.String(), "opaque")
	assert.Contains(t, buf.String(), "n/a")
}

func TestRenderBedrock(t *testing.T) {
	st, err := bedrock.ParseStatus("MCPE;My Server;475;1.16;5;20;1234567890;Second;Survival;1;19132;19133")
	require.NoError(t, err)

	var buf bytes.Buffer
	renderBedrock(&buf, &query.BedrockResult{
		Status:   st,
		Ping:     15 * time.Millisecond,
		Endpoint: models.Endpoint{Addr: netip.MustParseAddrPort("198.51.100.1:19132")},
	})
	out := buf.String()

	for _, want := range []string{"My Server", "Second", "5/20", "Survival (1)", "1234567890", "19132 / 19133", "15ms"} {
		assert.Contains(t, out, want)
	}
}

func TestRootCmdArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"java"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())

	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"java", "bedrock"})
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"version", "--json"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	var info vars.BuildInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, vars.Name, info.Name)
	assert.Equal(t, vars.License, info.License)
	assert.Equal(t, vars.CommitShort(), info.CommitShort)

	out.Reset()
	cmd = newRootCmd()
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "mcstatus")
	assert.Contains(t, out.String(), vars.URL)
}
