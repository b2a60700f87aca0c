package migrations

import "embed"

// Migrations contiene los archivos SQL del esquema.
//
//go:embed *.sql
var Migrations embed.FS
