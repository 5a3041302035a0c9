// Package resp implements the client side of the RESP-style wire format.
//
// Requests are always arrays of bulk strings. Replies are decoded into one
// of a small set of Reply types; decoding never fails outright, malformed
// input degrades to an UnrecognizedReply that records the cause.
//
// # Encoding
//
//	cmd := resp.NewKeyCommand("set", "k", "v")
//	payload := resp.Encode(cmd) // "*3\r\n$3\r\nset\r\n$1\r\nk\r\n$1\r\nv\r\n"
//
// Commands built from a tokenized input line use FromArgs:
//
//	cmd := resp.FromArgs([]string{"ping"}) // "*1\r\n$4\r\nping\r\n"
//
// Batches are built by appending to a reusable buffer:
//
//	buf = buf[:0]
//	for _, c := range cmds {
//	    buf = resp.AppendCommand(buf, c)
//	}
//
// # Decoding
//
//	switch r := resp.Decode(raw).(type) {
//	case *resp.StatusReply:
//	    fmt.Println(r.Status)
//	case *resp.UnrecognizedReply:
//	    fmt.Println("bad reply:", r.Reason)
//	}
//
// Format renders any reply the way an interactive client prints it.
package resp
