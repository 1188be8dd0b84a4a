package symbols

// JavaQueries contains tree-sitter query patterns for Java symbol extraction.
const JavaQueries = `
; ============================================================================
; Types
; ============================================================================

(class_declaration
  name: (identifier) @class.name
) @class.definition

(interface_declaration
  name: (identifier) @interface.name
) @interface.definition

(enum_declaration
  name: (identifier) @enum.name
) @enum.definition

; ============================================================================
; Methods & constructors
; ============================================================================

(method_declaration
  name: (identifier) @method.name
) @method.definition

(constructor_declaration
  name: (identifier) @constructor.name
) @constructor.definition

; ============================================================================
; Fields
; ============================================================================

(field_declaration
  declarator: (variable_declarator
    name: (identifier) @field.name
  )
) @field.definition

; ============================================================================
; Enum constants
; ============================================================================

(enum_constant
  name: (identifier) @enummember.name
) @enummember.definition

; ============================================================================
; Packages & imports
; ============================================================================

(package_declaration
  (scoped_identifier) @module.name
) @module.definition

(import_declaration
  (scoped_identifier) @import.name
) @import.definition
`
