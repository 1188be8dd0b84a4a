package symbols

// PythonQueries contains tree-sitter query patterns for Python symbol
// extraction.
const PythonQueries = `
; ============================================================================
; Functions & Methods
; ============================================================================

; def my_function(): ...
(function_definition
  name: (identifier) @function.name
) @function.definition

; ============================================================================
; Classes
; ============================================================================

(class_definition
  name: (identifier) @class.name
) @class.definition

; ============================================================================
; Variables & Constants
; ============================================================================

; module/class level assignment: MY_CONST = 1
(expression_statement
  (assignment
    left: (identifier) @variable.name
  ) @variable.definition
)

; annotated assignment: x: int = 1
(expression_statement
  (assignment
    left: (identifier) @variable.name
    type: (type)
  ) @variable.definition
)

; ============================================================================
; Imports
; ============================================================================

(import_statement
  name: (dotted_name) @import.name
) @import.definition

(import_from_statement
  module_name: (dotted_name) @import.name
) @import.definition
`
