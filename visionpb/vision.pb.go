// Package visionpb contains hand-authored stand-ins for the generated
// protoc-gen-go / protoc-gen-go-grpc output of the ComputerVision service.
// No .proto source is available, so the message and client/server shapes
// here are transcribed directly from the RPC contract and cross-checked
// against the reference Rust vision service.
package visionpb

import "fmt"

// ModelType selects which vision backend model processes an image,
// mirroring the Rust service's ModelType enum (BLIP, BLIP_QUANTIZED).
type ModelType int32

const (
	ModelType_BLIP           ModelType = 0
	ModelType_BLIP_QUANTIZED ModelType = 1
)

func (m ModelType) String() string {
	switch m {
	case ModelType_BLIP:
		return "BLIP"
	case ModelType_BLIP_QUANTIZED:
		return "BLIP_QUANTIZED"
	default:
		return fmt.Sprintf("ModelType(%d)", int32(m))
	}
}

// ImgProcRequest is the unary and streamed request message.
type ImgProcRequest struct {
	Image []byte    `protobuf:"bytes,1,opt,name=image,proto3" json:"image,omitempty"`
	Model ModelType `protobuf:"varint,2,opt,name=model,proto3,enum=visionpb.ModelType" json:"model,omitempty"`
}

func (m *ImgProcRequest) Reset()         { *m = ImgProcRequest{} }
func (m *ImgProcRequest) String() string { return fmt.Sprintf("ImgProcRequest(model=%s, %d bytes)", m.Model, len(m.Image)) }
func (*ImgProcRequest) ProtoMessage()    {}

func (m *ImgProcRequest) GetImage() []byte {
	if m != nil {
		return m.Image
	}
	return nil
}

func (m *ImgProcRequest) GetModel() ModelType {
	if m != nil {
		return m.Model
	}
	return ModelType_BLIP
}

// ImgProcResponse is the unary and streamed response message.
type ImgProcResponse struct {
	Description string `protobuf:"bytes,1,opt,name=description,proto3" json:"description,omitempty"`
}

func (m *ImgProcResponse) Reset()         { *m = ImgProcResponse{} }
func (m *ImgProcResponse) String() string { return fmt.Sprintf("ImgProcResponse(%q)", m.Description) }
func (*ImgProcResponse) ProtoMessage()    {}

func (m *ImgProcResponse) GetDescription() string {
	if m != nil {
		return m.Description
	}
	return ""
}
