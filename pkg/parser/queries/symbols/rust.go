package symbols

// RustQueries contains tree-sitter query patterns for Rust symbol extraction.
const RustQueries = `
; ============================================================================
; Functions
; ============================================================================

(function_item
  name: (identifier) @function.name
) @function.definition

; ============================================================================
; Types
; ============================================================================

(struct_item
  name: (type_identifier) @struct.name
) @struct.definition

(enum_item
  name: (type_identifier) @enum.name
) @enum.definition

(trait_item
  name: (type_identifier) @interface.name
) @interface.definition

(type_item
  name: (type_identifier) @type.name
) @type.definition

; ============================================================================
; impl blocks (methods live inside these; methods captured separately below)
; ============================================================================

(impl_item
  type: (type_identifier) @type.name
) @type.reference

(declaration_list
  (function_item
    name: (identifier) @method.name
  ) @method.definition
)

; ============================================================================
; Enum variants & struct fields
; ============================================================================

(enum_variant
  name: (identifier) @enummember.name
) @enummember.definition

(field_declaration
  name: (field_identifier) @field.name
) @field.definition

; ============================================================================
; Constants & statics
; ============================================================================

(const_item
  name: (identifier) @constant.name
) @constant.definition

(static_item
  name: (identifier) @variable.name
) @variable.definition

; ============================================================================
; Modules & imports
; ============================================================================

(mod_item
  name: (identifier) @module.name
) @module.definition

(use_declaration
  argument: (_) @import.name
) @import.definition
`
