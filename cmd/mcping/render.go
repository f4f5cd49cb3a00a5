package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/woozymasta/mcstatus/internal/query"
	"github.com/woozymasta/mcstatus/internal/vars"
)

// javaStatus is the commonly present subset of a Java status document.
type javaStatus struct {
	Description json.RawMessage `json:"description"`
	Version     struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	} `json:"version"`
	Players struct {
		Online int `json:"online"`
		Max    int `json:"max"`
	} `json:"players"`
}

// chat is a text component; descriptions are either a plain string or a component tree.
type chat struct {
	Text  string `json:"text"`
	Extra []chat `json:"extra"`
}

func (c chat) plain(b *strings.Builder) {
	b.WriteString(c.Text)
	for _, e := range c.Extra {
		e.plain(b)
	}
}

func describe(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var c chat
	if err := json.Unmarshal(raw, &c); err != nil {
		return ""
	}

	var b strings.Builder
	c.plain(&b)
	return b.String()
}

func renderJava(w io.Writer, res *query.JavaResult) {
	rows := [][]string{
		{"Endpoint", res.Endpoint.Addr.String()},
		{"SRV", strconv.FormatBool(res.Endpoint.SRV)},
	}

	var st javaStatus
	if err := json.Unmarshal([]byte(res.Status), &st); err == nil {
		rows = append(rows,
			[]string{"Version", st.Version.Name},
			[]string{"Protocol", strconv.Itoa(st.Version.Protocol)},
			[]string{"Players", fmt.Sprintf("%d/%d", st.Players.Online, st.Players.Max)},
			[]string{"MOTD", describe(st.Description)},
		)
	} else {
		rows = append(rows, []string{"Status", res.Status})
	}

	ping := "n/a"
	if res.Ping != nil {
		ping = formatPing(*res.Ping)
	}
	rows = append(rows, []string{"Ping", ping})

	renderTable(w, rows)
}

func renderBedrock(w io.Writer, res *query.BedrockResult) {
	st := res.Status
	rows := [][]string{
		{"Endpoint", res.Endpoint.Addr.String()},
		{"Edition", st.Edition},
		{"MOTD", st.MOTD1},
		{"MOTD 2", st.MOTD2},
		{"Version", st.Version},
		{"Protocol", strconv.FormatUint(uint64(st.ProtocolVersion), 10)},
		{"Players", fmt.Sprintf("%d/%d", st.PlayerCount, st.MaxPlayerCount)},
		{"Game mode", fmt.Sprintf("%s (%d)", st.GameMode, st.GameModeNum)},
		{"Server ID", st.ServerID.String()},
		{"Ports", fmt.Sprintf("%d / %d", st.Port, st.Port6)},
		{"Ping", formatPing(res.Ping)},
	}

	renderTable(w, rows)
}

func renderVersion(w io.Writer, info vars.BuildInfo) {
	pairs := info.Pairs()
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}

	renderTable(w, rows)
}

func renderTable(w io.Writer, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

func formatPing(d time.Duration) string {
	return d.Round(time.Microsecond * 100).String()
}
