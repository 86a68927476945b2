// Package grpcapi exposes the catalog over gRPC as catalog.v1.CatalogService.
// The service descriptor is registered by hand and messages travel as JSON.
package grpcapi

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/query"
)

const ServiceName = "catalog.v1.CatalogService"

const (
	methodListGames        = "/" + ServiceName + "/ListGames"
	methodResolveReference = "/" + ServiceName + "/ResolveReference"
)

type ListGamesRequest struct {
	Genres         []string `json:"genres,omitempty"`
	Platforms      []string `json:"platforms,omitempty"`
	Publishers     []string `json:"publishers,omitempty"`
	MinPrice       *float64 `json:"min_price,omitempty"`
	MaxPrice       *float64 `json:"max_price,omitempty"`
	Name           string   `json:"name,omitempty"`
	DatePublishing string   `json:"date_publishing,omitempty"`
	Sort           string   `json:"sort"`
	Page           int      `json:"page,omitempty"`
	PageCount      string   `json:"page_count"`
	Trigger        string   `json:"trigger,omitempty"`
	IncludeDeleted bool     `json:"include_deleted,omitempty"`
}

type ListGamesResponse struct {
	Items       []domain.CatalogItem `json:"items"`
	TotalPages  int                  `json:"total_pages"`
	CurrentPage int                  `json:"current_page"`
}

type ResolveReferenceRequest struct {
	Entity    string `json:"entity"`
	Reference string `json:"reference"`
}

type ResolveReferenceResponse struct {
	ID string `json:"id"`
}

// CatalogServer is implemented by CatalogService.
type CatalogServer interface {
	ListGames(ctx context.Context, req *ListGamesRequest) (*ListGamesResponse, error)
	ResolveReference(ctx context.Context, req *ResolveReferenceRequest) (*ResolveReferenceResponse, error)
}

type Lister interface {
	List(ctx context.Context, req query.Request) (query.Page, error)
}

type Resolver interface {
	Resolve(ctx context.Context, entity, raw string) (uuid.UUID, error)
}

type CatalogService struct {
	Lister   Lister
	Resolver Resolver
	Log      *zap.Logger
}

var _ CatalogServer = (*CatalogService)(nil)

// Register adds the catalog service to s. The service speaks JSON only:
// clients send content-type application/grpc+json, through Client or
// CallOption. A protobuf client fails every call with codes.Internal.
func Register(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func (s *CatalogService) ListGames(ctx context.Context, req *ListGamesRequest) (*ListGamesResponse, error) {
	values := map[string][]string{
		"genres":         req.Genres,
		"platforms":      req.Platforms,
		"publishers":     req.Publishers,
		"name":           {req.Name},
		"datePublishing": {req.DatePublishing},
		"sort":           {req.Sort},
		"pageCount":      {req.PageCount},
		"trigger":        {req.Trigger},
	}
	if req.MinPrice != nil {
		values["minPrice"] = []string{strconv.FormatFloat(*req.MinPrice, 'f', -1, 64)}
	}
	if req.MaxPrice != nil {
		values["maxPrice"] = []string{strconv.FormatFloat(*req.MaxPrice, 'f', -1, 64)}
	}
	if req.Page != 0 {
		values["page"] = []string{strconv.Itoa(req.Page)}
	}
	if req.IncludeDeleted {
		values["includeDeleted"] = []string{"true"}
	}

	r, err := query.ParseValues(values)
	if err != nil {
		return nil, s.toStatus(err)
	}
	page, err := s.Lister.List(ctx, r)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &ListGamesResponse{Items: page.Items, TotalPages: page.TotalPages, CurrentPage: page.CurrentPage}, nil
}

// ResolveReference returns the primary id for a game, genre, publisher or
// platform reference, copying legacy documents as needed.
func (s *CatalogService) ResolveReference(ctx context.Context, req *ResolveReferenceRequest) (*ResolveReferenceResponse, error) {
	entity := strings.ToLower(strings.TrimSpace(req.Entity))
	id, err := s.Resolver.Resolve(ctx, entity, strings.TrimSpace(req.Reference))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &ResolveReferenceResponse{ID: id.String()}, nil
}

// ServiceDesc describes catalog.v1.CatalogService for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListGames", Handler: listGamesHandler},
		{MethodName: "ResolveReference", Handler: resolveReferenceHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func listGamesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListGamesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ListGames(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListGames}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).ListGames(ctx, req.(*ListGamesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func resolveReferenceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ResolveReferenceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ResolveReference(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodResolveReference}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).ResolveReference(ctx, req.(*ResolveReferenceRequest))
	}
	return interceptor(ctx, in, info, handler)
}
