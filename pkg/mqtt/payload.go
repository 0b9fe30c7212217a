package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/golang/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/robotalks/sps30.go/pkg/sps30"
)

// Format is the encoding of published samples.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatProto Format = "proto"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatJSON, FormatProto:
		return f, nil
	}
	return "", fmt.Errorf("unknown payload format %q", name)
}

// EncodeSample encodes the consumer facing form of a sample.
// Proto payload is a google.protobuf.Struct.
func EncodeSample(s sps30.Sample, format Format) ([]byte, error) {
	switch format {
	case FormatProto:
		st, err := structpb.NewStruct(s.Map())
		if err != nil {
			return nil, err
		}
		return proto.Marshal(st)
	case FormatJSON, "":
		return json.Marshal(s)
	}
	return nil, fmt.Errorf("unknown payload format %q", format)
}

// DecodeSample decodes a payload produced by EncodeSample. Numbers are
// decoded as float64.
func DecodeSample(payload []byte, format Format) (map[string]interface{}, error) {
	switch format {
	case FormatProto:
		var st structpb.Struct
		if err := proto.Unmarshal(payload, &st); err != nil {
			return nil, err
		}
		return st.AsMap(), nil
	case FormatJSON, "":
		m := make(map[string]interface{})
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown payload format %q", format)
}
