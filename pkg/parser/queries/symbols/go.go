package symbols

// GoQueries contains tree-sitter query patterns for Go symbol extraction.
//
// Patterns follow the same @kind.name / @kind.definition capture convention
// as the TypeScript/JavaScript queries.
const GoQueries = `
; ============================================================================
; Functions & Methods
; ============================================================================

; func myFunction() { ... }
(function_declaration
  name: (identifier) @function.name
) @function.definition

; func (r *Receiver) myMethod() { ... }
(method_declaration
  name: (field_identifier) @method.name
) @method.definition

; ============================================================================
; Types
; ============================================================================

; type MyStruct struct { ... }
(type_declaration
  (type_spec
    name: (type_identifier) @struct.name
    type: (struct_type)
  ) @struct.definition
)

; type MyInterface interface { ... }
(type_declaration
  (type_spec
    name: (type_identifier) @interface.name
    type: (interface_type)
  ) @interface.definition
)

; type MyAlias = SomeOtherType (and plain type definitions over non-struct/interface types)
(type_declaration
  (type_spec
    name: (type_identifier) @type.name
    type: (_) @type.underlying
  ) @type.definition
)

; ============================================================================
; Fields
; ============================================================================

(field_declaration
  name: (field_identifier) @field.name
) @field.definition

; ============================================================================
; Variables & Constants
; ============================================================================

(const_declaration
  (const_spec
    name: (identifier) @constant.name
  ) @constant.definition
)

(var_declaration
  (var_spec
    name: (identifier) @variable.name
  ) @variable.definition
)

; ============================================================================
; Packages & Imports
; ============================================================================

(package_clause
  (package_identifier) @module.name
) @module.definition

(import_spec
  path: (interpreted_string_literal) @import.name
) @import.definition
`
