// Package errors provides structured, actionable error messages for the
// vstore command and its supporting packages.
//
// Every error carries a code that maps to a registered template with a short
// message, a longer explanation and a category:
//   - config: the vstore.json/.toml/.yaml file cannot be read or is invalid
//   - devtools: the devtools server or its websocket stream failed
//   - workspace: a workspace seed file cannot be loaded or watched
//   - cli: a command was invoked incorrectly
//   - runtime: a store callback failed
//
// # Usage
//
//	err := errors.New("C002").
//	    WithLocation("vstore.yaml", 4, 3).
//	    WithSuggestion("Use a port between 1 and 65535")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR C002: Invalid configuration value
//	//
//	//   vstore.yaml:4:3
//	//
//	//      3 │ devtools:
//	//   →  4 │   port: 99999
//	//        │   ^
//	//
//	//   Hint: Use a port between 1 and 65535
package errors
