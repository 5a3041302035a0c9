package resp

import (
	"fmt"
	"strconv"
	"strings"
)

// Format は対話クライアント向けに応答を整形する
func Format(r Reply) string {
	switch r := r.(type) {
	case *StatusReply:
		return r.Status
	case *ErrReply:
		return "(error) " + r.Status
	case *IntReply:
		return "(integer) " + strconv.FormatInt(r.Code, 10)
	case *BulkReply:
		return formatBulk(r)
	case *ArrayReply:
		var sb strings.Builder
		for i, elem := range r.Elems {
			if i > 0 {
				sb.WriteByte('\n')
			}
			fmt.Fprintf(&sb, "%d) %s", i+1, formatBulk(elem))
		}
		return sb.String()
	case *EmptyArrayReply:
		return "(empty array)"
	case *UnrecognizedReply:
		if r.Reason != nil {
			return "(unrecognized reply: " + r.Reason.Error() + ")"
		}
		return "(unrecognized reply)"
	default:
		return "(unrecognized reply)"
	}
}

func formatBulk(r *BulkReply) string {
	if r.Nil {
		return "(nil)"
	}
	return strconv.Quote(string(r.Arg))
}
