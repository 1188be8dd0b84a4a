package symbols

// CQueries contains tree-sitter query patterns for C symbol extraction.
const CQueries = `
; ============================================================================
; Functions
; ============================================================================

(function_definition
  declarator: (function_declarator
    declarator: (identifier) @function.name
  )
) @function.definition

; Prototypes (re-declarations without a body)
(declaration
  declarator: (function_declarator
    declarator: (identifier) @function.name
  )
) @function.prototype

; ============================================================================
; Structs, unions, enums
; ============================================================================

(struct_specifier
  name: (type_identifier) @struct.name
  body: (field_declaration_list)
) @struct.definition

(union_specifier
  name: (type_identifier) @struct.name
  body: (field_declaration_list)
) @struct.definition

(enum_specifier
  name: (type_identifier) @enum.name
  body: (enumerator_list)
) @enum.definition

(type_definition
  declarator: (type_identifier) @type.name
) @type.definition

; ============================================================================
; Fields & enumerators
; ============================================================================

(field_declaration
  declarator: (field_identifier) @field.name
) @field.definition

(enumerator
  name: (identifier) @enummember.name
) @enummember.definition

; ============================================================================
; Globals
; ============================================================================

(translation_unit
  (declaration
    declarator: (identifier) @variable.name
  ) @variable.definition
)

; ============================================================================
; Includes
; ============================================================================

(preproc_include
  path: (_) @import.name
) @import.definition
`
