// Package migrations embeds the schema for the profile credential store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
