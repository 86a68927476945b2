package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/game-store/services/catalog/internal/domain"
)

const errorDomain = "catalog"

func (s *CatalogService) toStatus(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	e, ok := domain.AsError(err)
	if !ok {
		if s.Log != nil {
			s.Log.Error("catalog rpc failed", zap.Error(err))
		}
		return withDetails(status.New(codes.Internal, "internal error"), &errdetails.ErrorInfo{Reason: "INTERNAL", Domain: errorDomain}, nil)
	}

	info := &errdetails.ErrorInfo{Reason: string(e.Code), Domain: errorDomain}
	switch e.Code {
	case domain.CodeNotFound:
		return withDetails(status.New(codes.NotFound, e.Message), info, nil)
	case domain.CodeDuplicateKey:
		return withDetails(status.New(codes.AlreadyExists, e.Message), info, nil)
	case domain.CodeOutOfStock:
		return withDetails(status.New(codes.FailedPrecondition, e.Message), info, nil)
	default:
		return withDetails(status.New(codes.InvalidArgument, e.Message), info, badRequest(e))
	}
}

// badRequest lists one violation per offending id, or per detail field.
func badRequest(e *domain.Error) *errdetails.BadRequest {
	bad := &errdetails.BadRequest{}
	if ids, ok := e.Details["ids"].([]string); ok {
		entity, _ := e.Details["entity"].(string)
		for _, id := range ids {
			bad.FieldViolations = append(bad.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       entity,
				Description: fmt.Sprintf("%q is not a valid %s id", id, entity),
			})
		}
		return bad
	}
	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		bad.FieldViolations = append(bad.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       f,
			Description: fmt.Sprint(e.Details[f]),
		})
	}
	return bad
}

func withDetails(st *status.Status, info *errdetails.ErrorInfo, bad *errdetails.BadRequest) error {
	var (
		st2 *status.Status
		err error
	)
	if bad != nil {
		st2, err = st.WithDetails(info, bad)
	} else {
		st2, err = st.WithDetails(info)
	}
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}

// FieldViolations returns the field and description of every BadRequest
// violation attached to st, for clients that print them.
func FieldViolations(st *status.Status) [][2]string {
	var out [][2]string
	for _, d := range st.Details() {
		bad, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		for _, v := range bad.GetFieldViolations() {
			out = append(out, [2]string{v.GetField(), v.GetDescription()})
		}
	}
	return out
}
