package symbols

// RubyQueries contains tree-sitter query patterns for Ruby symbol extraction.
const RubyQueries = `
; ============================================================================
; Methods
; ============================================================================

(method
  name: (identifier) @method.name
) @method.definition

(singleton_method
  name: (identifier) @method.name
) @method.definition

; ============================================================================
; Classes & modules
; ============================================================================

(class
  name: (constant) @class.name
) @class.definition

(module
  name: (constant) @module.name
) @module.definition

; ============================================================================
; Constants & variables
; ============================================================================

(assignment
  left: (constant) @constant.name
) @constant.definition

(assignment
  left: (identifier) @variable.name
) @variable.definition

; ============================================================================
; Requires
; ============================================================================

(call
  method: (identifier) @_require_name
  arguments: (argument_list (string) @import.name)
  (#eq? @_require_name "require")
) @import.definition
`
