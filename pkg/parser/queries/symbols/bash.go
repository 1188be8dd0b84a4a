package symbols

// BashQueries contains tree-sitter query patterns for Bash symbol extraction.
// Bash has a far smaller symbol surface than the other wired languages
// (functions and exported/assigned variables); the query reflects that.
const BashQueries = `
; ============================================================================
; Functions
; ============================================================================

(function_definition
  name: (word) @function.name
) @function.definition

; ============================================================================
; Variables
; ============================================================================

(variable_assignment
  name: (variable_name) @variable.name
) @variable.definition

; ============================================================================
; Sourced files
; ============================================================================

(command
  name: (command_name (word) @_source_name)
  argument: (word) @import.name
  (#any-of? @_source_name "source" ".")
) @import.definition
`
