// Package calls provides tree-sitter query patterns for the extractor's
// second pass: call sites and member accesses, used to emit identifier
// occurrences and the by-name "calls" relationships built from them.
//
// Every query captures the callee/member name under @call.name (a plain
// function/method call) or @member.name (attribute/field access). A member
// pattern matches every member expression, including the callee of a
// method call, so such a call yields both a call and a member capture.
package calls

const JSQueries = `
(call_expression
  function: (identifier) @call.name
) @call.site

(call_expression
  function: (member_expression
    property: (property_identifier) @call.name
  )
) @call.site

(member_expression
  property: (property_identifier) @member.name
) @member.site
`

const TSQueries = JSQueries

const GoQueries = `
(call_expression
  function: (identifier) @call.name
) @call.site

(call_expression
  function: (selector_expression
    field: (field_identifier) @call.name
  )
) @call.site

(selector_expression
  field: (field_identifier) @member.name
) @member.site
`

const PythonQueries = `
(call
  function: (identifier) @call.name
) @call.site

(call
  function: (attribute
    attribute: (identifier) @call.name
  )
) @call.site

(attribute
  attribute: (identifier) @member.name
) @member.site
`

const RustQueries = `
(call_expression
  function: (identifier) @call.name
) @call.site

(call_expression
  function: (field_expression
    field: (field_identifier) @call.name
  )
) @call.site

(field_expression
  field: (field_identifier) @member.name
) @member.site
`

const JavaQueries = `
(method_invocation
  name: (identifier) @call.name
) @call.site

(field_access
  field: (identifier) @member.name
) @member.site
`

const CQueries = `
(call_expression
  function: (identifier) @call.name
) @call.site

(field_expression
  field: (field_identifier) @member.name
) @member.site
`

const CppQueries = `
(call_expression
  function: (identifier) @call.name
) @call.site

(call_expression
  function: (field_expression
    field: (field_identifier) @call.name
  )
) @call.site

(field_expression
  field: (field_identifier) @member.name
) @member.site
`

const RubyQueries = `
(call
  method: (identifier) @call.name
) @call.site

(call
  receiver: (_)
  method: (identifier) @call.name
) @call.site
`

const BashQueries = `
(command
  name: (command_name (word) @call.name)
) @call.site
`
