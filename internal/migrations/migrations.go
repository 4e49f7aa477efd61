package migrations

import "embed"

// Files contains SQL migrations embedded into the binary, named with a
// zero-padded sequence prefix (001_init.sql) so lexical order is apply order.
//
//go:embed *.sql
var Files embed.FS
