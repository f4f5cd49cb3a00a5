// Package geoip handles downloading, updating, and reading MaxMind GeoLite2 databases.
package geoip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/vars"
)

// ErrDownload is returned when the database URL answers with a non-200 status.
var ErrDownload = errors.New("geoip download failed")

// EnsureDB checks if the GeoIP database exists at the specified path and if it is recent enough.
// If the file is missing or older than maxAge, it downloads a new copy from the provided URL.
func EnsureDB(ctx context.Context, path, url string, maxAge time.Duration) error {
	info, err := os.Stat(path)

	switch {
	case err == nil:
		if time.Since(info.ModTime()) < maxAge {
			log.Info().Str("path", path).Msg("GeoIP database is up to date")
			return nil
		}
		log.Info().Str("path", path).Msg("GeoIP database is outdated, updating...")
	case errors.Is(err, os.ErrNotExist):
		log.Info().Str("path", path).Msg("GeoIP database missing, downloading...")
	default:
		return err
	}

	if url == "" {
		return fmt.Errorf("%w: no url configured for %s", ErrDownload, path)
	}

	return downloadFile(ctx, path, url)
}

// downloadFile writes into a temporary file and renames it over path once complete.
func downloadFile(ctx context.Context, path, url string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", vars.UserAgent())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s answered %d", ErrDownload, url, resp.StatusCode)
	}

	tmpPath := path + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return err
	}

	if err = out.Close(); err != nil {
		return err
	}

	log.Info().Str("path", path).Int64("bytes", n).Msg("GeoIP database downloaded")

	return os.Rename(tmpPath, path)
}
