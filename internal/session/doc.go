// Package session implements the interactive read-eval-print loop.
//
// A Session reads one line at a time, tokenizes it with shell quoting
// rules, encodes the tokens as a single command, writes it to the server
// and renders the decoded reply. Protocol problems are rendered and the
// loop continues; transport errors end the session.
package session
