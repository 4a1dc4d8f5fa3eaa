// Package db ships the SQL migrations for the postgres result catalog.
package db

import "embed"

//go:embed migrations/*.up.sql
var Migrations embed.FS
