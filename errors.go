/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"html"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Seednode/jeopardy/games/jeopardy"
)

var (
	errNotHost   = errors.New("only the host can do that")
	errLoading   = errors.New("a board is already being dealt")
	errNoBoard   = errors.New("no board has been dealt yet")
	errHubClosed = errors.New("this game has ended")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Info().Msgf(format, args...)
}

// statusFor maps game errors onto the HTTP status reported to callers of the
// board api.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotHost):
		return http.StatusForbidden
	case errors.Is(err, jeopardy.ErrNoSuchCell), errors.Is(err, errHubClosed):
		return http.StatusNotFound
	case errors.Is(err, errLoading),
		errors.Is(err, errNoBoard),
		errors.Is(err, jeopardy.ErrCellRevealed),
		errors.Is(err, jeopardy.ErrCellUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newPage(cfg *Config, title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon(cfg))
	htmlBody.WriteString(`<link rel="stylesheet" href="` + cfg.prefix + `/assets/jeopardy/app.css">`)
	htmlBody.WriteString(`<title>` + html.EscapeString(title) + `</title></head>`)
	htmlBody.WriteString(`<body class="page"><a href="` + cfg.prefix + `/">` + html.EscapeString(body) + `</a></body></html>`)

	return htmlBody.String()
}
