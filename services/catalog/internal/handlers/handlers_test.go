package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/example/game-store/internal/platform/api"
	"github.com/example/game-store/internal/platform/auth"
	"github.com/example/game-store/services/catalog/internal/cache"
	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/query"
	"github.com/example/game-store/services/catalog/internal/resolver"
	"github.com/example/game-store/services/catalog/internal/service"
	"github.com/example/game-store/services/catalog/internal/store"
)

var testSecret = []byte("catalog-handlers-test-secret-32b")

func token(t *testing.T, subject, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	})
	signed, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	ls, err := legacy.OpenInMemory()
	if err != nil {
		t.Fatalf("open legacy store: %v", err)
	}
	t.Cleanup(func() { _ = ls.Close() })
	if err := ls.PutCategory(ctx, legacy.Category{CategoryID: 1, CategoryName: "Beverages"}); err != nil {
		t.Fatal(err)
	}
	if err := ls.PutSupplier(ctx, legacy.Supplier{SupplierID: 1, CompanyName: "Exotic Liquids"}); err != nil {
		t.Fatal(err)
	}
	if err := ls.PutProduct(ctx, legacy.Product{
		ProductID: 5, ProductName: "Chai", UnitPrice: 18, UnitsInStock: 1,
		CategoryID: 1, SupplierID: 1, AddedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}

	st := store.NewMemory()
	qc := cache.NewMemory(16, time.Minute)
	svc := service.New(st, ls, resolver.New(st, ls, zap.NewNop()), qc, zap.NewNop())
	r := chi.NewRouter()
	Register(r, Deps{
		Lister:     query.NewService(st, ls, qc, time.Minute, zap.NewNop()),
		Games:      svc,
		Genres:     svc,
		Publishers: svc,
		Platforms:  svc,
		Cart:       svc,
		Verifier:   auth.JWTVerifier{Secret: testSecret},
	})
	return r
}

func do(h http.Handler, method, target, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) api.APIError {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error
}

func TestListGames_MergesLegacy(t *testing.T) {
	h := newRouter(t)
	rr := do(h, http.MethodGet, "/v1/games?sort=PriceAsc&pageCount=10", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var page struct {
		Items []struct {
			ID     string `json:"id"`
			Origin string `json:"origin"`
		} `json:"items"`
		TotalPages  int `json:"totalPages"`
		CurrentPage int `json:"currentPage"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "5" || page.Items[0].Origin != "legacy" {
		t.Fatalf("unexpected items: %+v", page.Items)
	}
	if page.TotalPages != 1 || page.CurrentPage != 1 {
		t.Fatalf("unexpected paging: %+v", page)
	}
}

func TestListGames_RequiresSortAndPageCount(t *testing.T) {
	h := newRouter(t)
	rr := do(h, http.MethodGet, "/v1/games", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	e := errorBody(t, rr)
	if e.Code != string(domain.CodeValidation) {
		t.Fatalf("expected VALIDATION, got %s", e.Code)
	}
	if _, ok := e.Details["sort"]; !ok {
		t.Fatalf("expected sort detail, got %v", e.Details)
	}
	if _, ok := e.Details["pageCount"]; !ok {
		t.Fatalf("expected pageCount detail, got %v", e.Details)
	}
}

func TestListGames_IncludeDeletedNeedsRole(t *testing.T) {
	h := newRouter(t)
	target := "/v1/games?sort=Newest&pageCount=all&includeDeleted=true"
	if rr := do(h, http.MethodGet, target, "", ""); rr.Code != http.StatusForbidden {
		t.Fatalf("anonymous: expected 403, got %d", rr.Code)
	}
	if rr := do(h, http.MethodGet, target, "", token(t, "m-1", auth.RoleManager)); rr.Code != http.StatusOK {
		t.Fatalf("manager: expected 200, got %d", rr.Code)
	}
}

func TestGameOptions(t *testing.T) {
	h := newRouter(t)
	rr := do(h, http.MethodGet, "/v1/games/options", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var opts struct {
		PageCounts []string `json:"pageCounts"`
		Sorts      []string `json:"sorts"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&opts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(opts.PageCounts) != 5 || opts.PageCounts[4] != "all" || len(opts.Sorts) != 5 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestCreateGame_Auth(t *testing.T) {
	h := newRouter(t)
	body := `{"name":"Chai Tea Simulator","price":5,"genreIds":["1"]}`

	if rr := do(h, http.MethodPost, "/v1/games", body, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr := do(h, http.MethodPost, "/v1/games", body, token(t, "u-1", "user")); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	rr := do(h, http.MethodPost, "/v1/games", body, token(t, "a-1", auth.RoleAdmin))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var item struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.Key != "chai-tea-simulator" {
		t.Fatalf("expected derived key, got %q", item.Key)
	}

	get := do(h, http.MethodGet, "/v1/games/chai-tea-simulator", "", "")
	if get.Code != http.StatusOK {
		t.Fatalf("expected 200 on get, got %d", get.Code)
	}
}

func TestCreateGame_InvalidIDs(t *testing.T) {
	h := newRouter(t)
	rr := do(h, http.MethodPost, "/v1/games", `{"name":"X-Com","genreIds":["bad","404"],"platformIds":["7"]}`, token(t, "a-1", auth.RoleAdmin))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	e := errorBody(t, rr)
	if e.Code != string(domain.CodeIdsNotValid) {
		t.Fatalf("expected IDS_NOT_VALID, got %s", e.Code)
	}
	ids, _ := e.Details["ids"].([]any)
	if len(ids) != 2 {
		t.Fatalf("expected both genre ids reported, got %v", e.Details)
	}
}

func TestCreateGame_InvalidJSON(t *testing.T) {
	h := newRouter(t)
	rr := do(h, http.MethodPost, "/v1/games", `{`, token(t, "a-1", auth.RoleAdmin))
	if rr.Code != http.StatusBadRequest || errorBody(t, rr).Code != "INVALID_JSON" {
		t.Fatalf("expected INVALID_JSON 400, got %d", rr.Code)
	}
}

func TestDeleteGame_InvalidRef(t *testing.T) {
	h := newRouter(t)
	rr := do(h, http.MethodDelete, "/v1/games/not-a-ref", "", token(t, "a-1", auth.RoleAdmin))
	if rr.Code != http.StatusBadRequest || errorBody(t, rr).Code != string(domain.CodeInvalidIdentifier) {
		t.Fatalf("expected INVALID_IDENTIFIER 400, got %d", rr.Code)
	}
}

func TestGetGame_NotFound(t *testing.T) {
	h := newRouter(t)
	rr := do(h, http.MethodGet, "/v1/games/nothing-here", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestAddToCart(t *testing.T) {
	h := newRouter(t)
	user := token(t, "u-1", "user")

	if rr := do(h, http.MethodPost, "/v1/cart/5", "", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	rr := do(h, http.MethodPost, "/v1/cart/5", "", user)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var order domain.Order
	if err := json.NewDecoder(rr.Body).Decode(&order); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(order.Lines) != 1 || order.Lines[0].Quantity != 1 {
		t.Fatalf("unexpected order: %+v", order)
	}

	rr = do(h, http.MethodPost, "/v1/cart/5", `{"quantity":1}`, user)
	if rr.Code != http.StatusConflict || errorBody(t, rr).Code != string(domain.CodeOutOfStock) {
		t.Fatalf("expected OUT_OF_STOCK 409, got %d", rr.Code)
	}

	if rr := do(h, http.MethodGet, "/v1/cart", "", user); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on cart, got %d", rr.Code)
	}
}

func TestGenresAndPublishers(t *testing.T) {
	h := newRouter(t)
	admin := token(t, "a-1", auth.RoleAdmin)

	rr := do(h, http.MethodPost, "/v1/publishers", `{"companyName":"Exotic Liquids"}`, admin)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	rr = do(h, http.MethodPost, "/v1/publishers", `{"companyName":"exotic liquids"}`, admin)
	if rr.Code != http.StatusBadRequest || errorBody(t, rr).Code != string(domain.CodeDuplicateKey) {
		t.Fatalf("expected DUPLICATE_KEY 400, got %d", rr.Code)
	}

	rr = do(h, http.MethodGet, "/v1/genres", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var genres []service.GenreView
	if err := json.NewDecoder(rr.Body).Decode(&genres); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(genres) != 1 || genres[0].ID.String() != "1" {
		t.Fatalf("expected the legacy category, got %+v", genres)
	}

	rr = do(h, http.MethodPut, "/v1/genres/1", `{"name":"Drinks"}`, admin)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestWriteError_InternalHidesCause(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/games", nil)
	writeError(rr, req, zap.NewNop(), errors.New("pg: connection reset"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if bytes.Contains(rr.Body.Bytes(), []byte("connection reset")) {
		t.Fatal("internal error text leaked to the client")
	}
}

func TestRegister_Limiter(t *testing.T) {
	calls := 0
	r := chi.NewRouter()
	Register(r, Deps{
		Genres: service.New(store.NewMemory(), nil, nil, nil, zap.NewNop()),
		Limiter: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				calls++
				if calls > 1 {
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				next.ServeHTTP(w, req)
			})
		},
	})

	if rr := do(r, http.MethodGet, "/v1/genres/"+"00000000-0000-0000-0000-000000000001", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 through the limiter, got %d", rr.Code)
	}
	if rr := do(r, http.MethodGet, "/v1/genres", "", ""); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}
