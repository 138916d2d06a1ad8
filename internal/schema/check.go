package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var definition []byte

const documentFile = "document.json"

// CheckError is one violation of the document format.
type CheckError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e CheckError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Path, e.Message)
	}
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Definition returns the embedded CUE definition of the format.
func Definition() []byte { return definition }

// Check validates d against the format definition and its own hash.
func Check(d *Document) []CheckError {
	data, err := d.JSON()
	if err != nil {
		return []CheckError{{Message: err.Error()}}
	}
	return CheckBytes(data)
}

// CheckBytes validates a JSON document. It reports every violation found;
// the hash is only compared once the document conforms.
func CheckBytes(data []byte) []CheckError {
	ctx := cuecontext.New()
	def := ctx.CompileBytes(definition, cue.Filename("schema.cue"))
	if err := def.Err(); err != nil {
		return []CheckError{{Path: "schema.cue", Message: err.Error()}}
	}
	doc := ctx.CompileBytes(data, cue.Filename(documentFile))
	if err := doc.Err(); err != nil {
		return fromCUE(err)
	}

	v := def.LookupPath(cue.ParsePath("#Document")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fromCUE(err)
	}

	d, err := Parse(data)
	if err != nil {
		return []CheckError{{Message: err.Error()}}
	}
	want, err := d.ComputeHash()
	if err != nil {
		return []CheckError{{Path: "kinds", Message: err.Error()}}
	}
	if d.Hash != want {
		return []CheckError{{
			Path:    "hash",
			Message: fmt.Sprintf("hash %s does not match content hash %s", d.Hash, want),
		}}
	}
	return nil
}

func fromCUE(err error) []CheckError {
	var out []CheckError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		out = append(out, CheckError{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Line:    documentLine(e),
		})
	}
	return out
}

// documentLine prefers a position inside the checked document over one in
// the definition.
func documentLine(e cueerrors.Error) int {
	positions := append([]token.Pos{e.Position()}, e.InputPositions()...)
	for _, p := range positions {
		if p.Filename() == documentFile {
			return p.Line()
		}
	}
	return 0
}
