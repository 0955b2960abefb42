package gateway

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "fhevm.relayer.v1.Relayer"

	EncryptMethod       = "/" + ServiceName + "/Encrypt"
	PublicDecryptMethod = "/" + ServiceName + "/PublicDecrypt"
	PingMethod          = "/" + ServiceName + "/Ping"
)

// Messages are structpb.Struct documents. Integers travel as decimal
// strings and byte strings as 0x-prefixed hex.

func encryptRequest(contract, user string, value uint64) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"contract": contract,
		"user":     user,
		"value":    strconv.FormatUint(value, 10),
		"bits":     32,
	})
}

func decodeEncryptRequest(s *structpb.Struct) (contract, user string, value uint64, err error) {
	f := s.GetFields()
	contract = f["contract"].GetStringValue()
	user = f["user"].GetStringValue()
	value, err = strconv.ParseUint(f["value"].GetStringValue(), 10, 32)
	if err != nil {
		return "", "", 0, fmt.Errorf("value: %w", err)
	}
	return contract, user, value, nil
}

func encryptResponse(ct Ciphertext) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"handle": hexutil.Encode(ct.Handle),
		"proof":  hexutil.Encode(ct.Proof),
	})
}

func decodeEncryptResponse(s *structpb.Struct) (Ciphertext, error) {
	f := s.GetFields()
	handle, err := hexutil.Decode(f["handle"].GetStringValue())
	if err != nil {
		return Ciphertext{}, fmt.Errorf("handle: %w", err)
	}
	proof, err := hexutil.Decode(f["proof"].GetStringValue())
	if err != nil {
		return Ciphertext{}, fmt.Errorf("proof: %w", err)
	}
	return Ciphertext{Handle: handle, Proof: proof}, nil
}

func decryptRequest(handles []string) (*structpb.Struct, error) {
	list := make([]any, len(handles))
	for i, h := range handles {
		list[i] = h
	}
	return structpb.NewStruct(map[string]any{"handles": list})
}

func decodeDecryptRequest(s *structpb.Struct) []string {
	vals := s.GetFields()["handles"].GetListValue().GetValues()
	handles := make([]string, 0, len(vals))
	for _, v := range vals {
		handles = append(handles, v.GetStringValue())
	}
	return handles
}

func decryptResponse(values map[string]uint64, proof []byte) (*structpb.Struct, error) {
	m := make(map[string]any, len(values))
	for h, v := range values {
		m[h] = strconv.FormatUint(v, 10)
	}
	return structpb.NewStruct(map[string]any{
		"values": m,
		"proof":  hexutil.Encode(proof),
	})
}

func decodeDecryptResponse(s *structpb.Struct) (map[string]uint64, []byte, error) {
	f := s.GetFields()
	values := make(map[string]uint64)
	for h, v := range f["values"].GetStructValue().GetFields() {
		n, err := strconv.ParseUint(v.GetStringValue(), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("value for %s: %w", h, err)
		}
		values[h] = n
	}
	proof, err := hexutil.Decode(f["proof"].GetStringValue())
	if err != nil {
		return nil, nil, fmt.Errorf("proof: %w", err)
	}
	return values, proof, nil
}

type relayerService struct {
	relayer Relayer
}

func (s *relayerService) encrypt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	contract, user, value, err := decodeEncryptRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ct, err := s.relayer.Encrypt(ctx, contract, user, value)
	if err != nil {
		return nil, toStatus(err)
	}
	return encryptResponse(ct)
}

func (s *relayerService) publicDecrypt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	values, proof, err := s.relayer.PublicDecrypt(ctx, decodeDecryptRequest(in))
	if err != nil {
		return nil, toStatus(err)
	}
	return decryptResponse(values, proof)
}

func (s *relayerService) ping(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"status": "OK"})
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, err.Error())
}

func unaryHandler(method string, call func(*relayerService, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(*relayerService)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*structpb.Struct))
		})
	}
}

var relayerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Encrypt", Handler: unaryHandler(EncryptMethod, (*relayerService).encrypt)},
		{MethodName: "PublicDecrypt", Handler: unaryHandler(PublicDecryptMethod, (*relayerService).publicDecrypt)},
		{MethodName: "Ping", Handler: unaryHandler(PingMethod, (*relayerService).ping)},
	},
	Metadata: "fhevm/relayer/v1/relayer.proto",
}

// RegisterRelayer exposes r on s.
func RegisterRelayer(s grpc.ServiceRegistrar, r Relayer) {
	s.RegisterService(&relayerServiceDesc, &relayerService{relayer: r})
}
