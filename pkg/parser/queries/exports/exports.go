// Package exports holds the query that locates a module's default export.
// The grammar for export statements is shared by TypeScript, TSX and
// JavaScript, so one query string serves all three.
package exports

// Queries captures the three shapes a default export can take:
//   - @default.declaration - export default class Button {}
//   - @default.value - export default Button; export default class {}
//   - @specifier.name / @specifier.alias - export { Button as default }
//
// Specifiers match for every alias; callers keep those aliased to
// "default" whose statement has no source module. The alias may be the
// anonymous "default" keyword node, hence the bare wildcards.
const Queries = `
(export_statement
  "default"
  declaration: (_) @default.declaration
) @default.statement

(export_statement
  "default"
  value: (_) @default.value
) @default.statement

(export_specifier
  name: _ @specifier.name
  alias: _ @specifier.alias
) @specifier.definition
`
