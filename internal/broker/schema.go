package broker

import (
	"fmt"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// getMethod is the full gRPC method name of the databroker's read call.
const getMethod = "/kuksa.val.v1.VAL/Get"

// Enum numbers from kuksa.val.v1.
const (
	viewCurrentValue = 1
	fieldValue       = 2
)

// Error codes the broker reports per entry (HTTP-style).
const (
	codeOK       = 200
	codeNotFound = 404
)

// schema holds descriptors for the subset of kuksa.val.v1 used by the
// sampler. Fields not described here are kept as unknown fields.
type schema struct {
	getRequest     protoreflect.MessageDescriptor
	entryRequest   protoreflect.MessageDescriptor
	getResponse    protoreflect.MessageDescriptor
	dataEntry      protoreflect.MessageDescriptor
	datapoint      protoreflect.MessageDescriptor
	dataEntryError protoreflect.MessageDescriptor
	errorMsg       protoreflect.MessageDescriptor
}

var loadSchema = sync.OnceValues(buildSchema)

func buildSchema() (*schema, error) {
	file, err := protodesc.NewFile(valFileDescriptor(), nil)
	if err != nil {
		return nil, fmt.Errorf("broker: building kuksa.val.v1 descriptor: %w", err)
	}

	msgs := file.Messages()
	s := &schema{
		getRequest:     msgs.ByName("GetRequest"),
		entryRequest:   msgs.ByName("EntryRequest"),
		getResponse:    msgs.ByName("GetResponse"),
		dataEntry:      msgs.ByName("DataEntry"),
		datapoint:      msgs.ByName("Datapoint"),
		dataEntryError: msgs.ByName("DataEntryError"),
		errorMsg:       msgs.ByName("Error"),
	}
	return s, nil
}

func valFileDescriptor() *descriptorpb.FileDescriptorProto {
	scalar := func(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(name),
			JsonName: proto.String(name),
			Number:   proto.Int32(num),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     typ.Enum(),
		}
	}
	ref := func(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type, typeName string, repeated bool) *descriptorpb.FieldDescriptorProto {
		f := scalar(name, num, typ)
		f.TypeName = proto.String(".kuksa.val.v1." + typeName)
		if repeated {
			f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		}
		return f
	}
	oneof := func(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
		f.OneofIndex = proto.Int32(0)
		return f
	}
	enum := func(name string, values ...string) *descriptorpb.EnumDescriptorProto {
		e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
		for i, v := range values {
			e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
				Name:   proto.String(v),
				Number: proto.Int32(int32(i)),
			})
		}
		return e
	}

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("kuksa/val/v1/val.proto"),
		Package: proto.String("kuksa.val.v1"),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			enum("View", "VIEW_UNSPECIFIED", "VIEW_CURRENT_VALUE"),
			enum("Field", "FIELD_UNSPECIFIED", "FIELD_PATH", "FIELD_VALUE"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Datapoint"),
				Field: []*descriptorpb.FieldDescriptorProto{
					oneof(scalar("string", 11, descriptorpb.FieldDescriptorProto_TYPE_STRING)),
					oneof(scalar("bool", 12, descriptorpb.FieldDescriptorProto_TYPE_BOOL)),
					oneof(scalar("int32", 13, descriptorpb.FieldDescriptorProto_TYPE_SINT32)),
					oneof(scalar("int64", 14, descriptorpb.FieldDescriptorProto_TYPE_SINT64)),
					oneof(scalar("uint32", 15, descriptorpb.FieldDescriptorProto_TYPE_UINT32)),
					oneof(scalar("uint64", 16, descriptorpb.FieldDescriptorProto_TYPE_UINT64)),
					oneof(scalar("float", 17, descriptorpb.FieldDescriptorProto_TYPE_FLOAT)),
					oneof(scalar("double", 18, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE)),
				},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{{Name: proto.String("value")}},
			},
			{
				Name: proto.String("DataEntry"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("path", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					ref("value", 2, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "Datapoint", false),
				},
			},
			{
				Name: proto.String("EntryRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("path", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					ref("view", 2, descriptorpb.FieldDescriptorProto_TYPE_ENUM, "View", false),
					ref("fields", 3, descriptorpb.FieldDescriptorProto_TYPE_ENUM, "Field", true),
				},
			},
			{
				Name: proto.String("GetRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{
					ref("entries", 1, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "EntryRequest", true),
				},
			},
			{
				Name: proto.String("Error"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("code", 1, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
					scalar("reason", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar("message", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
			{
				Name: proto.String("DataEntryError"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("path", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					ref("error", 2, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "Error", false),
				},
			},
			{
				Name: proto.String("GetResponse"),
				Field: []*descriptorpb.FieldDescriptorProto{
					ref("entries", 1, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "DataEntry", true),
					ref("errors", 2, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "DataEntryError", true),
					ref("error", 3, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "Error", false),
				},
			},
		},
	}
}
