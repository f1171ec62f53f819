package syntax

import (
	"embed"
	"io/fs"
	"sync"

	"github.com/zjrosen/quill/internal/log"
)

// builtinFS embeds the definitions quill ships with. Users can shadow any of
// them by dropping a file with the same extensions into a syntax.d directory.
//
//go:embed syntax.d
var builtinFS embed.FS

var (
	builtinOnce sync.Once
	builtinDefs []*Definition
)

// Builtins returns the compiled-in definitions, parsed once on first use.
func Builtins() []*Definition {
	builtinOnce.Do(func() {
		sub, err := fs.Sub(builtinFS, "syntax.d")
		if err != nil {
			log.ErrorErr(log.CatSyntax, "embedded syntax directory missing", err)
			return
		}
		builtinDefs = loadDir(sub, "builtin")
	})
	return builtinDefs
}
