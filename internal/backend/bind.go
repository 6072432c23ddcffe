package backend

import (
	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/value"
)

// bind converts args into driver arguments by their declared kinds. Kinds
// have already been checked by CheckArgs, so a mismatch here means a value
// outside the sealed set.
func bind(d *query.Descriptor, args *value.List) ([]any, error) {
	if args == nil || args.Len() == 0 {
		return nil, nil
	}

	out := make([]any, 0, args.Len())
	for i, v := range args.All() {
		switch x := v.(type) {
		case value.Text:
			out = append(out, string(x))
		case value.BigInt:
			out = append(out, int64(x))
		case value.SmallInt:
			out = append(out, int16(x))
		case value.Float:
			out = append(out, float64(x))
		case value.Timestamp:
			out = append(out, x.UTC())
		default:
			return nil, query.Errorf(query.CodeBind, d.Name, "argument %d has unsupported kind %v", i, d.Params[i])
		}
	}
	return out, nil
}
