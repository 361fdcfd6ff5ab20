package data

import (
	_ "embed"
)

//go:embed reserved_names.txt
var ReservedNames string
