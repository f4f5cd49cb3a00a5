// Package vars holds build metadata set with -ldflags "-X ...".
package vars

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// License of the project
const License = "AGPL-3.0"

var (
	// Name of the project
	Name = "mcstatus"

	// Version is the git tag, e.g. v1.2.3
	Version = "dev"

	// Commit is the full or short git SHA
	Commit = "unknown"

	// Revision is the commit count of the build
	Revision = 0

	// BuildTime is when the build started, UTC
	BuildTime = time.Unix(0, 0).UTC()

	// URL of the repository
	URL = "https://github.com/woozymasta/mcstatus"

	// linker targets, parsed in init
	revision  string
	buildTime string
)

// BuildInfo is the build metadata served by /version and printed by --version.
type BuildInfo struct {
	BuildTime   time.Time `json:"build_time,omitzero"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Commit      string    `json:"commit"`
	CommitShort string    `json:"commit_short,omitempty"`
	URL         string    `json:"url,omitempty"`
	License     string    `json:"license,omitempty"`
	Revision    int       `json:"revision,omitempty"`
}

func init() {
	if n, err := strconv.Atoi(revision); err == nil {
		Revision = n
	}

	if buildTime != "" {
		if t, err := time.Parse(time.RFC3339, buildTime); err == nil {
			BuildTime = t.UTC()
		}
	}
}

// Info returns the complete build metadata.
func Info() BuildInfo {
	return BuildInfo{
		Name:        Name,
		Version:     Version,
		Commit:      Commit,
		CommitShort: CommitShort(),
		Revision:    Revision,
		BuildTime:   BuildTime,
		URL:         URL,
		License:     License,
	}
}

// Ver is the short form of Info used by the public /version endpoint.
func Ver() BuildInfo {
	info := Info()
	return BuildInfo{
		Name:     info.Name,
		Version:  info.Version,
		Commit:   info.CommitShort,
		Revision: info.Revision,
	}
}

// Pairs returns Info as ordered label/value rows for text output.
func (b BuildInfo) Pairs() [][2]string {
	return [][2]string{
		{"name", b.Name},
		{"url", b.URL},
		{"version", b.Version},
		{"commit", b.Commit},
		{"revision", strconv.Itoa(b.Revision)},
		{"built", b.BuildTime.Format(time.RFC3339)},
		{"license", b.License},
	}
}

// Print writes Info to w, one "label: value" line each.
func Print(w io.Writer) {
	for _, p := range Info().Pairs() {
		_, _ = fmt.Fprintf(w, "%-9s %s\n", p[0]+":", p[1])
	}
}

// UserAgent returns the User-Agent sent on outgoing HTTP requests.
func UserAgent() string {
	return Name + "/" + Version + " (+" + URL + ")"
}

// CommitShort returns the first 7 characters of the git commit hash.
func CommitShort() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}

	return Commit
}
