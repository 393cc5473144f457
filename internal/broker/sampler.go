// Package broker reads datapoint values from a KUKSA databroker over gRPC.
//
// Each Read dials its own connection and closes it before returning; no
// connection is held between reads.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"strconv"
	"time"
	"unicode/utf8"

	"nathanbeddoewebdev/vssplot/internal/domain"
	"nathanbeddoewebdev/vssplot/internal/logging"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Option configures a Sampler.
type Option func(*Sampler)

// WithDialer replaces the network dialer, e.g. with an in-memory listener.
func WithDialer(dial func(ctx context.Context, addr string) (net.Conn, error)) Option {
	return func(s *Sampler) {
		s.dialOpts = append(s.dialOpts, grpc.WithContextDialer(dial))
	}
}

// WithTimeout bounds each Read. Zero leaves reads bounded only by the
// caller's context and the transport.
func WithTimeout(d time.Duration) Option {
	return func(s *Sampler) {
		s.timeout = d
	}
}

// WithUnaryInterceptor adds a client interceptor to every call, after the
// built-in call logging. A nil interceptor is ignored.
func WithUnaryInterceptor(i grpc.UnaryClientInterceptor) Option {
	return func(s *Sampler) {
		if i != nil {
			s.interceptors = append(s.interceptors, i)
		}
	}
}

// WithLogger sets the logger used for call logging and degraded readings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) {
		s.logger = l
	}
}

// Sampler reads the current value of a datapoint from one databroker.
type Sampler struct {
	endpoint domain.Endpoint
	timeout  time.Duration
	dialOpts []grpc.DialOption
	logger   *slog.Logger

	interceptors []grpc.UnaryClientInterceptor
}

// New returns a Sampler for the databroker at endpoint.
func New(endpoint domain.Endpoint, opts ...Option) *Sampler {
	s := &Sampler{
		endpoint: endpoint,
		dialOpts: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	chain := append([]grpc.UnaryClientInterceptor{loggingUnaryInterceptor(s.logger)}, s.interceptors...)
	s.dialOpts = append(s.dialOpts, grpc.WithChainUnaryInterceptor(chain...))
	return s
}

// Endpoint returns the databroker this sampler talks to.
func (s *Sampler) Endpoint() domain.Endpoint { return s.endpoint }

// Read returns the current value of path as a float64.
//
// A datapoint with no value, or one the broker does not know, yields
// domain.SentinelValue and a nil error. Transport and protocol failures
// yield a *domain.CommError. Any other error the broker reports for the
// path yields a *domain.BrokerError. NaN and infinite values are treated as
// absent. A path that is not valid UTF-8 fails with domain.ErrInvalidPath
// before dialing.
func (s *Sampler) Read(ctx context.Context, path string) (float64, error) {
	if !utf8.ValidString(path) {
		return 0, fmt.Errorf("%q: %w", path, domain.ErrInvalidPath)
	}

	sc, err := loadSchema()
	if err != nil {
		return 0, err
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	conn, err := grpc.NewClient("passthrough:///"+s.endpoint.String(), s.dialOpts...)
	if err != nil {
		return 0, s.commError("dial", err)
	}
	defer conn.Close()

	req := newGetRequest(sc, path)
	resp := dynamicpb.NewMessage(sc.getResponse)
	if err := conn.Invoke(callCtx, getMethod, req, resp); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return 0, ctx.Err()
		}
		return 0, s.commError("get", err)
	}

	return s.decode(sc, path, resp)
}

func (s *Sampler) commError(op string, err error) error {
	return &domain.CommError{Endpoint: s.endpoint, Op: op, Err: err}
}

func newGetRequest(sc *schema, path string) *dynamicpb.Message {
	ef := sc.entryRequest.Fields()
	entry := dynamicpb.NewMessage(sc.entryRequest)
	entry.Set(ef.ByName("path"), protoreflect.ValueOfString(path))
	entry.Set(ef.ByName("view"), protoreflect.ValueOfEnum(viewCurrentValue))
	entry.Mutable(ef.ByName("fields")).List().Append(protoreflect.ValueOfEnum(fieldValue))

	req := dynamicpb.NewMessage(sc.getRequest)
	req.Mutable(sc.getRequest.Fields().ByName("entries")).List().Append(protoreflect.ValueOfMessage(entry))
	return req
}

func (s *Sampler) decode(sc *schema, path string, resp protoreflect.Message) (float64, error) {
	rf := sc.getResponse.Fields()

	errs := resp.Get(rf.ByName("errors")).List()
	for i := 0; i < errs.Len(); i++ {
		entryErr := errs.Get(i).Message()
		errPath := entryErr.Get(sc.dataEntryError.Fields().ByName("path")).String()
		if errPath != "" && errPath != path {
			continue
		}
		if err := s.brokerError(sc, path, entryErr.Get(sc.dataEntryError.Fields().ByName("error")).Message()); err != nil {
			return 0, err
		}
	}

	if resp.Has(rf.ByName("error")) {
		if err := s.brokerError(sc, path, resp.Get(rf.ByName("error")).Message()); err != nil {
			return 0, err
		}
	}

	entries := resp.Get(rf.ByName("entries")).List()
	ef := sc.dataEntry.Fields()
	for i := 0; i < entries.Len(); i++ {
		entry := entries.Get(i).Message()
		if p := entry.Get(ef.ByName("path")).String(); p != "" && p != path {
			continue
		}
		if !entry.Has(ef.ByName("value")) {
			break
		}
		return s.convert(sc, path, entry.Get(ef.ByName("value")).Message()), nil
	}

	s.logger.Debug("datapoint has no value", slog.String("path", path))
	return domain.SentinelValue, nil
}

// brokerError returns nil for success and not-found codes.
func (s *Sampler) brokerError(sc *schema, path string, e protoreflect.Message) error {
	f := sc.errorMsg.Fields()
	code := uint32(e.Get(f.ByName("code")).Uint())
	switch code {
	case 0, codeOK:
		return nil
	case codeNotFound:
		s.logger.Debug("datapoint not found", slog.String("path", path))
		return nil
	}
	return &domain.BrokerError{
		Path:    path,
		Code:    code,
		Reason:  e.Get(f.ByName("reason")).String(),
		Message: e.Get(f.ByName("message")).String(),
	}
}

func (s *Sampler) convert(sc *schema, path string, dp protoreflect.Message) float64 {
	fd := dp.WhichOneof(sc.datapoint.Oneofs().ByName("value"))
	if fd == nil {
		return domain.SentinelValue
	}

	v, ok := numeric(fd.Kind(), dp.Get(fd))
	if !ok {
		s.logger.Debug("datapoint value is not numeric",
			slog.String("path", path),
			slog.String("kind", fd.Kind().String()),
		)
		return domain.SentinelValue
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.logger.Debug("datapoint value is not finite",
			slog.String("path", path),
			slog.Float64("value", v),
		)
		return domain.SentinelValue
	}
	return v
}

// numeric converts a scalar datapoint value to float64.
func numeric(kind protoreflect.Kind, v protoreflect.Value) (float64, bool) {
	switch kind {
	case protoreflect.BoolKind:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	case protoreflect.Sint32Kind, protoreflect.Sint64Kind:
		return float64(v.Int()), true
	case protoreflect.Uint32Kind, protoreflect.Uint64Kind:
		return float64(v.Uint()), true
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return v.Float(), true
	case protoreflect.StringKind:
		f, err := strconv.ParseFloat(v.String(), 64)
		return f, err == nil
	}
	return 0, false
}
