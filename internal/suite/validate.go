package suite

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// suiteSchema constrains the authored suite document. Kept closed so
// typos in field names are caught instead of silently ignored.
const suiteSchema = `
#Trace: {
	browser!: string & !=""
	path!:    string & !=""
}

#Suite: {
	name?:     string & !=""
	baseline?: string
	mode?:     "warn" | "strict"
	known?:    string
	traces!:   [...#Trace]
}
`

// validateSchema unifies the decoded YAML document with the suite
// schema and reports the first constraint violation.
func validateSchema(doc any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(suiteSchema).LookupPath(cue.ParsePath("#Suite"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal suite schema: %w", err)
	}

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return fmt.Errorf("suite document: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Err(); err != nil {
		return fmt.Errorf("suite schema violation: %w", err)
	}
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return fmt.Errorf("suite schema violation: %w", err)
	}
	return nil
}
