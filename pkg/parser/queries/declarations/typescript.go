package declarations

// TSQueries matches the declarations a widget file can name: interfaces and
// type aliases that describe properties, and the classes (declared or
// assigned from a class expression) that a default export can refer to.
//
// Each pattern captures:
//   - @<kind>.name - the declared identifier
//   - @<kind>.definition - the whole declaration node
//
// Nested declarations also match; callers keep only top-level ones.
const TSQueries = `
; interface ButtonProperties { ... }
(interface_declaration
  name: (type_identifier) @interface.name
) @interface.definition

; type ButtonProperties = { ... } | { ... }
(type_alias_declaration
  name: (type_identifier) @alias.name
) @alias.definition

; class Button { ... }
(class_declaration
  name: (type_identifier) @class.name
) @class.definition

; abstract class Button { ... }
(abstract_class_declaration
  name: (type_identifier) @class.name
) @class.definition

; const Button = class { ... }
(variable_declarator
  name: (identifier) @variable.name
  value: (class)
) @variable.definition
`
