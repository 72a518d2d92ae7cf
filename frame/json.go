package frame

import (
	"strconv"
	"time"

	"github.com/zmtpfix/zmtpfix/json"
)

// JSONTime is the timestamp layout used by ToJSON/FromJSON, matching the
// precision bgpfix's msg.Msg uses for its own JSON_TIME.
const JSONTime = "2006-01-02T15:04:05.000"

// ToJSON appends the JSON array representation of f to dst (nil dst
// allocates): [flags, routing_id, group, command, time, data_hex].
func (f *Frame) ToJSON(dst []byte) []byte {
	dst = append(dst, '[')

	dst = strconv.AppendUint(dst, uint64(f.Flags), 10)

	dst = append(dst, ',')
	dst = json.U32(dst, f.RoutingID)

	dst = append(dst, `,"`...)
	dst = append(dst, f.Group...)
	dst = append(dst, `",`...)

	if f.Command != "" {
		dst = append(dst, '"')
		dst = append(dst, f.Command...)
		dst = append(dst, `"`...)
	} else {
		dst = append(dst, "null"...)
	}

	dst = append(dst, `,"`...)
	dst = append(dst, f.Time.Format(JSONTime)...)
	dst = append(dst, `",`...)

	dst = json.Hex(dst, f.Bytes())

	return append(dst, ']')
}

// String dumps f as its JSON array representation.
func (f *Frame) String() string {
	return string(f.ToJSON(nil))
}

// FromJSON reads the JSON array representation written by ToJSON back into
// f, replacing its current contents.
func (f *Frame) FromJSON(src []byte) error {
	var idx int
	return json.ArrayEach(src, func(val []byte) error {
		defer func() { idx++ }()

		switch idx {
		case 0: // flags
			v, err := strconv.ParseUint(json.S(val), 10, 8)
			if err != nil {
				return ErrValue
			}
			f.Flags = Flags(v) &^ FlagDelimiter // never trust a wire delimiter bit
		case 1: // routing id
			v, err := json.UnU32(val)
			if err != nil {
				return ErrValue
			}
			f.RoutingID = v
		case 2: // group
			g := json.SQ(val)
			if len(g) > 255 {
				return ErrGroup
			}
			f.Group = g
		case 3: // command
			if json.SQ(val) == "null" || len(val) == 0 {
				f.Command = ""
			} else {
				f.Command = json.SQ(val)
			}
		case 4: // time
			t, err := time.Parse(JSONTime, json.SQ(val))
			if err != nil {
				return ErrValue
			}
			f.Time = t
		case 5: // data
			buf, err := json.UnHex(nil, val)
			if err != nil {
				return ErrValue
			}
			f.SetBytes(buf)
		}
		return nil
	})
}
