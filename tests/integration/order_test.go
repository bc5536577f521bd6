//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

const testAPIKey = "integration-test-key"

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

const shippingAddress = "Av. Providencia 1234, Santiago"

func TestPlaceOrder_EmptyItems(t *testing.T) {
	req := orderRequest{
		Items:           []orderItemRequest{},
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_MissingShippingAddress(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "prod-pijama-verano", Quantity: 1}},
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	req := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-no-such", Quantity: 1}},
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_SingleItem(t *testing.T) {
	req := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-pijama-verano", Quantity: 1}},
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.Total != "12.990" {
		t.Errorf("total: got %q, want %q", order.Total, "12.990")
	}
	if order.DiscountApplied != "0" {
		t.Errorf("discount: got %q, want %q", order.DiscountApplied, "0")
	}
	if order.PaymentMethod != "transferencia" {
		t.Errorf("payment method: got %q, want transferencia", order.PaymentMethod)
	}
}

func TestPlaceOrder_DiscountedLine(t *testing.T) {
	// 18.990 with a 10% product discount prices the line at 17.091.
	req := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-pijama-polar", Quantity: 2}},
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.Subtotal != "34.182" {
		t.Errorf("subtotal: got %q, want %q", order.Subtotal, "34.182")
	}
	if len(order.Details) != 1 || order.Details[0].UnitPrice != "17.091" {
		t.Errorf("details: got %+v, want one line at 17.091", order.Details)
	}
}

func TestPlaceOrder_PercentageCoupon(t *testing.T) {
	// Subtotal 34.182, BIENVENIDA10 takes 10% = 3.418 (rounded half-up from
	// 3418,2), total 30.764.
	req := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-pijama-polar", Quantity: 2}},
		CouponCode:      "BIENVENIDA10",
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.DiscountApplied != "3.418" {
		t.Errorf("discount: got %q, want %q", order.DiscountApplied, "3.418")
	}
	if order.Total != "30.764" {
		t.Errorf("total: got %q, want %q", order.Total, "30.764")
	}
}

func TestPlaceOrder_FixedCoupon(t *testing.T) {
	req := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-manta-ponderada", Quantity: 1}},
		CouponCode:      "INVIERNO5000",
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.DiscountApplied != "5.000" {
		t.Errorf("discount: got %q, want %q", order.DiscountApplied, "5.000")
	}
	if order.Total != "44.990" {
		t.Errorf("total: got %q, want %q", order.Total, "44.990")
	}
}

func TestPlaceOrder_UnknownCoupon(t *testing.T) {
	req := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-pijama-verano", Quantity: 1}},
		CouponCode:      "NOEXISTE",
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	req := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-manta-ponderada", Quantity: 999}},
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_DecrementsStock(t *testing.T) {
	before := getProduct(t, "prod-spray-almohada")

	req := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-spray-almohada", Quantity: 2}},
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	after := getProduct(t, "prod-spray-almohada")
	if after.Stock != before.Stock-2 {
		t.Errorf("stock: got %d, want %d", after.Stock, before.Stock-2)
	}
}

func TestPlaceOrder_ResponseStructure(t *testing.T) {
	req := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-pijama-verano", Quantity: 1}},
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)

	if !uuidPattern.MatchString(order.ID) {
		t.Errorf("order ID %q is not a valid UUID", order.ID)
	}
	if order.Status != "pending" {
		t.Errorf("status: got %q, want pending", order.Status)
	}
	if len(order.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(order.Details))
	}
	if order.Details[0].ProductID != "prod-pijama-verano" {
		t.Errorf("detail product: got %q", order.Details[0].ProductID)
	}

	// The order is readable afterwards.
	getResp := doGet(t, "/api/orders/"+order.ID)
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", getResp.StatusCode)
	}
}

func TestUpdateOrderStatus_RequiresKey(t *testing.T) {
	req := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-pijama-verano", Quantity: 1}},
		ShippingAddress: shippingAddress,
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()
	order := decodeJSON[orderResponse](t, resp)

	patch := doRequest(t, http.MethodPatch, "/api/orders/"+order.ID+"/status",
		map[string]string{"status": "paid"}, "")
	defer patch.Body.Close()
	if patch.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", patch.StatusCode)
	}

	patch = doRequest(t, http.MethodPatch, "/api/orders/"+order.ID+"/status",
		map[string]string{"status": "paid"}, testAPIKey)
	defer patch.Body.Close()
	if patch.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", patch.StatusCode)
	}

	// paid -> pending is not a legal transition.
	patch = doRequest(t, http.MethodPatch, "/api/orders/"+order.ID+"/status",
		map[string]string{"status": "pending"}, testAPIKey)
	defer patch.Body.Close()
	if patch.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", patch.StatusCode)
	}
}

func getProduct(t *testing.T, id string) productResponse {
	t.Helper()

	resp := doGet(t, "/api/products/"+id)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get product %s: status %d", id, resp.StatusCode)
	}
	return decodeJSON[productResponse](t, resp)
}
