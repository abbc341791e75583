package jsparse

// Queries are run against the concrete syntax tree before it is converted.
// Both the JavaScript and TypeScript grammars share these node names.
var Queries = map[string]string{
	// DOM level 0 handlers: el.onclick = ...
	"event_property": `
		(assignment_expression
			left: (member_expression
				property: (property_identifier) @event)
			(#match? @event "^on[a-z]+$"))
	`,
}
