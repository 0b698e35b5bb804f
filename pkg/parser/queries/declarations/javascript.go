package declarations

// JSQueries is the JavaScript subset of TSQueries. Plain JavaScript has no
// interfaces or aliases, so a JS widget always resolves to NotFound unless
// its default export is not class-like.
const JSQueries = `
(class_declaration
  name: (identifier) @class.name
) @class.definition

(variable_declarator
  name: (identifier) @variable.name
  value: (class)
) @variable.definition
`
