//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"
)

type couponAdminResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Kind        string `json:"kind"`
	MaxUses     int    `json:"max_uses"`
	CurrentUses int    `json:"current_uses"`
}

func TestCreateCoupon_CodeNormalizedUppercase(t *testing.T) {
	now := time.Now().UTC()
	body := map[string]any{
		"code":       "otono15x",
		"discount":   15,
		"kind":       "percentage",
		"valid_from": now.Format(time.RFC3339),
		"valid_to":   now.AddDate(0, 1, 0).Format(time.RFC3339),
		"max_uses":   100,
	}
	resp := doPostWithKey(t, "/api/coupons", body, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	created := decodeJSON[couponAdminResponse](t, resp)
	if created.Code != "OTONO15X" {
		t.Errorf("code: got %q, want %q", created.Code, "OTONO15X")
	}

	// The lowercase spelling still redeems: lookups are case-insensitive and
	// match the normalized stored code.
	orderReq := orderRequest{
		Items:           []orderItemRequest{{ProductID: "prod-pijama-verano", Quantity: 1}},
		CouponCode:      "otono15x",
		ShippingAddress: shippingAddress,
	}
	orderResp := doPost(t, "/api/orders", orderReq)
	defer orderResp.Body.Close()

	if orderResp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", orderResp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, orderResp)
	// 12.990 minus 15% (1948.5) rounds half-up to 11.042.
	if order.Total != "11.042" {
		t.Errorf("total: got %q, want %q", order.Total, "11.042")
	}
}
