package http

import "testing"

type pickBody struct {
	Symbol string `json:"symbol" validate:"required,alphanum,max=4"`
	Buffer int    `query:"buffer" validate:"gte=1,lte=8"`
	Side   string `form:"side" validate:"omitempty,oneof=buy sell"`
}

func validationErrors(t *testing.T, v interface{}) map[string]ValidationError {
	t.Helper()
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	out := make(map[string]ValidationError)
	for _, ve := range toValidationErrors(err) {
		out[ve.Field] = ve
	}
	return out
}

func TestValidationErrorsUseWireNames(t *testing.T) {
	errs := validationErrors(t, &pickBody{Symbol: "BT-C", Buffer: 0, Side: "hold"})

	if ve := errs["symbol"]; ve.Code != "ERR_ALPHANUM" || ve.Message != "symbol must contain only letters and digits" {
		t.Fatalf("unexpected symbol error %+v", ve)
	}
	if ve := errs["buffer"]; ve.Code != "ERR_GTE" || ve.Params["min"] != "1" || ve.Message != "buffer must be at least 1" {
		t.Fatalf("unexpected buffer error %+v", ve)
	}
	ve := errs["side"]
	opts, _ := ve.Params["options"].([]string)
	if ve.Code != "ERR_ONEOF" || len(opts) != 2 || ve.Message != "side must be one of: buy, sell" {
		t.Fatalf("unexpected side error %+v", ve)
	}
}

func TestValidationErrorsMax(t *testing.T) {
	errs := validationErrors(t, &pickBody{Symbol: "BTCUSDT", Buffer: 2})
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %+v", errs)
	}
	if ve := errs["symbol"]; ve.Code != "ERR_MAX" || ve.Params["max"] != "4" {
		t.Fatalf("unexpected symbol error %+v", ve)
	}
	if errs := validationErrors(t, &pickBody{Symbol: "BTC", Buffer: 8}); errs != nil {
		t.Fatalf("valid body rejected: %+v", errs)
	}
}

func TestBearerHeaders(t *testing.T) {
	h := BearerHeaders("")
	if _, ok := h["Authorization"]; ok || h["Accept"] != ContentTypeJSON {
		t.Fatalf("unexpected headers for empty token %v", h)
	}
	if h := BearerHeaders("abc"); h["Authorization"] != "Bearer abc" || h["Accept"] != ContentTypeJSON {
		t.Fatalf("unexpected headers %v", h)
	}
}
