// Package shell splits one line of interactive input into a command vector.
//
// Single and double quotes group text containing whitespace. A quoted span
// that directly follows non-whitespace text is merged into the preceding
// token, so `key"part"` yields the single token `keypart`. An opening quote
// without its matching closing quote makes the whole line a syntax error.
//
//	tokens, err := shell.Tokenize(`set a 'hello world'`)
//	// tokens == []string{"set", "a", "hello world"}
//
//	_, err = shell.Tokenize(`set a 'oops`)
//	// errors.Is(err, shell.ErrUnterminatedQuote)
package shell
