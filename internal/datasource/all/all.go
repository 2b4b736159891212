// Package all registers every table source kind. Import it for side
// effects from binaries that select a source by configuration:
//
//	import _ "margins/internal/datasource/all"
package all

import (
	_ "margins/internal/datasource/dbsource"
	_ "margins/internal/datasource/file"
	_ "margins/internal/datasource/httpds"
	_ "margins/internal/datasource/postgres"
	_ "margins/internal/datasource/sheets"
)
