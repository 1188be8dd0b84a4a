package symbols

// CppQueries contains tree-sitter query patterns for C++ symbol extraction.
// The C++ grammar is a superset of C; these patterns add class/namespace
// constructs on top of the C patterns (duplicated here rather than shared,
// since the two grammars produce distinct node-type sets for declarators).
const CppQueries = `
; ============================================================================
; Functions & methods
; ============================================================================

(function_definition
  declarator: (function_declarator
    declarator: (identifier) @function.name
  )
) @function.definition

(function_definition
  declarator: (function_declarator
    declarator: (field_identifier) @method.name
  )
) @method.definition

(function_definition
  declarator: (function_declarator
    declarator: (qualified_identifier
      name: (identifier) @method.name
    )
  )
) @method.definition

; ============================================================================
; Classes & structs
; ============================================================================

(class_specifier
  name: (type_identifier) @class.name
  body: (field_declaration_list)
) @class.definition

(struct_specifier
  name: (type_identifier) @struct.name
  body: (field_declaration_list)
) @struct.definition

(enum_specifier
  name: (type_identifier) @enum.name
  body: (enumerator_list)
) @enum.definition

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
; Namespaces
; ============================================================================

(namespace_definition
  name: (namespace_identifier) @namespace.name
) @namespace.definition

; ============================================================================
; Includes
; ============================================================================

(preproc_include
  path: (_) @import.name
) @import.definition
`
