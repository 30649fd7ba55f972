package trading

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/betbot/gokx/okx/client"
)

func newTestOrchestrator(t *testing.T, handler http.HandlerFunc) *Orchestrator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := client.New(client.Credential{Name: "main", APIKey: "ak", SecretKey: "sk", Passphrase: "pp"},
		client.Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
	return New(c, nil)
}

func okBody(data string) string {
	return `{"code":"0","msg":"","data":` + data + `}`
}

func readJSON(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, _ := io.ReadAll(r.Body)
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("bad request body %q: %v", raw, err)
	}
	return m
}

func TestCalculatePositionSize(t *testing.T) {
	o := New(nil, []int{10, 25, 50, 100})

	tests := []struct {
		name       string
		balance    float64
		percentage int
		want       float64
		wantErr    bool
	}{
		{"quarter", 1000, 25, 250, false},
		{"full", 1000, 100, 1000, false},
		{"not a preset", 1000, 15, 0, true},
		{"zero", 1000, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := o.CalculatePositionSize(tt.balance, tt.percentage)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestOpenPositionWithRiskInline(t *testing.T) {
	var orderBody map[string]any
	algoCalls := 0
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case client.EndpointPlaceOrder:
			orderBody = readJSON(t, r)
			io.WriteString(w, okBody(`[{"ordId":"1","sCode":"0"}]`))
		case client.EndpointPlaceAlgoOrder:
			algoCalls++
			io.WriteString(w, okBody(`[]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	result := o.OpenPositionWithRisk(OrderIntent{
		InstID:      "BTC-USDT-SWAP",
		Side:        "buy",
		OrdType:     "market",
		TdMode:      "cross",
		Sz:          "10",
		SlTriggerPx: "40000",
		TpTriggerPx: "80000",
	})

	if !result.MainOrder.IsOK() {
		t.Fatalf("entry failed: %+v", result.MainOrder)
	}
	// 内联模式：触发价挂在主单上，不单独下条件单
	if orderBody["slTriggerPx"] != "40000" || orderBody["tpTriggerPx"] != "80000" {
		t.Fatalf("bracket fields missing from entry order: %v", orderBody)
	}
	if algoCalls != 0 {
		t.Fatalf("inline mode placed %d algo orders", algoCalls)
	}
	if result.StopLoss != nil || result.TakeProfit != nil {
		t.Fatal("inline mode must leave stop_loss/take_profit null")
	}
	if orderBody["clOrdId"] == "" || orderBody["clOrdId"] == nil {
		t.Fatal("entry order missing client order id")
	}
}

func TestOpenPositionWithRiskDetached(t *testing.T) {
	var algoBodies []map[string]any
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case client.EndpointPlaceOrder:
			body := readJSON(t, r)
			// 分离模式下主单不带触发价
			if _, present := body["slTriggerPx"]; present {
				t.Error("detached entry must not carry slTriggerPx")
			}
			io.WriteString(w, okBody(`[{"ordId":"1","sCode":"0"}]`))
		case client.EndpointPlaceAlgoOrder:
			algoBodies = append(algoBodies, readJSON(t, r))
			io.WriteString(w, okBody(`[{"algoId":"a1","sCode":"0"}]`))
		}
	})

	result := o.OpenPositionWithRisk(OrderIntent{
		InstID:       "BTC-USDT-SWAP",
		Side:         "buy",
		OrdType:      "market",
		TdMode:       "cross",
		Sz:           "10",
		SlTriggerPx:  "40000",
		TpTriggerPx:  "80000",
		DetachedRisk: true,
	})

	if !result.MainOrder.IsOK() || !result.StopLoss.IsOK() || !result.TakeProfit.IsOK() {
		t.Fatalf("composite result incomplete: %+v", result)
	}
	if len(algoBodies) != 2 {
		t.Fatalf("algo orders got=%d want=2", len(algoBodies))
	}

	sl, tp := algoBodies[0], algoBodies[1]
	// 风险单在平仓方向上
	if sl["side"] != "sell" || tp["side"] != "sell" {
		t.Fatalf("risk orders must flip to closing side: sl=%v tp=%v", sl["side"], tp["side"])
	}
	if sl["ordType"] != "conditional" || tp["ordType"] != "conditional" {
		t.Fatal("risk orders must be conditional")
	}
	if sl["slTriggerPx"] != "40000" || sl["slOrdPx"] != "-1" {
		t.Fatalf("stop loss body got=%v", sl)
	}
	if tp["tpTriggerPx"] != "80000" || tp["tpOrdPx"] != "-1" {
		t.Fatalf("take profit body got=%v", tp)
	}
	if sl["sz"] != "10" || tp["sz"] != "10" {
		t.Fatal("risk orders must match entry size")
	}
}

func TestOpenPositionWithRiskDetachedSellEntry(t *testing.T) {
	var algoBodies []map[string]any
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case client.EndpointPlaceOrder:
			io.WriteString(w, okBody(`[{"ordId":"1","sCode":"0"}]`))
		case client.EndpointPlaceAlgoOrder:
			algoBodies = append(algoBodies, readJSON(t, r))
			io.WriteString(w, okBody(`[]`))
		}
	})

	result := o.OpenPositionWithRisk(OrderIntent{
		InstID:       "BTC-USDT-SWAP",
		Side:         "sell",
		OrdType:      "market",
		TdMode:       "cross",
		Sz:           "3",
		SlTriggerPx:  "90000",
		DetachedRisk: true,
	})
	if len(algoBodies) != 1 {
		t.Fatalf("algo orders got=%d want=1", len(algoBodies))
	}
	if algoBodies[0]["side"] != "buy" {
		t.Fatalf("sell entry risk order side got=%v want=buy", algoBodies[0]["side"])
	}
	if result.TakeProfit != nil {
		t.Fatal("no tp trigger, take_profit must stay null")
	}
}

func TestDetachedRiskSkippedOnEntryFailure(t *testing.T) {
	algoCalls := 0
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case client.EndpointPlaceOrder:
			io.WriteString(w, `{"code":"51008","msg":"Insufficient balance","data":[]}`)
		case client.EndpointPlaceAlgoOrder:
			algoCalls++
			io.WriteString(w, okBody(`[]`))
		}
	})

	result := o.OpenPositionWithRisk(OrderIntent{
		InstID:       "BTC-USDT-SWAP",
		Side:         "buy",
		OrdType:      "market",
		TdMode:       "cross",
		Sz:           "10",
		SlTriggerPx:  "40000",
		DetachedRisk: true,
	})

	if result.MainOrder.IsOK() {
		t.Fatal("expected entry rejection")
	}
	if algoCalls != 0 {
		t.Fatal("risk orders must not be placed after a failed entry")
	}
	if result.StopLoss != nil {
		t.Fatal("stop_loss must stay null after failed entry")
	}
}

func TestOpenPositionByPercentage(t *testing.T) {
	var orderBody map[string]any
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case client.EndpointBalance:
			io.WriteString(w, okBody(`[{"totalEq":"1200","details":[{"ccy":"USDT","availBal":"1000"}]}]`))
		case client.EndpointPlaceOrder:
			orderBody = readJSON(t, r)
			io.WriteString(w, okBody(`[{"ordId":"1","sCode":"0"}]`))
		}
	})

	resp := o.OpenPositionByPercentage(OrderIntent{
		InstID:  "BTC-USDT-SWAP",
		Side:    "buy",
		OrdType: "market",
		TdMode:  "cross",
	}, 25, 50, 10)

	if !resp.IsOK() {
		t.Fatalf("unexpected failure: %+v", resp)
	}
	// floor(1000 * 0.25 * 10 / 50) = 50 张
	if orderBody["sz"] != "50" {
		t.Fatalf("sized sz got=%v want=50", orderBody["sz"])
	}

	var composite CompositeResult
	if err := resp.DataInto(&composite); err != nil {
		t.Fatalf("composite payload: %v", err)
	}
	if !composite.MainOrder.IsOK() {
		t.Fatalf("main order not surfaced: %+v", composite)
	}
}

func TestOpenPositionByPercentageTruncates(t *testing.T) {
	var orderBody map[string]any
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case client.EndpointBalance:
			io.WriteString(w, okBody(`[{"details":[{"ccy":"USDT","availBal":"99"}]}]`))
		case client.EndpointPlaceOrder:
			orderBody = readJSON(t, r)
			io.WriteString(w, okBody(`[]`))
		}
	})

	o.OpenPositionByPercentage(OrderIntent{InstID: "BTC-USDT-SWAP", Side: "buy", OrdType: "market", TdMode: "cross"}, 100, 40, 1)
	// floor(99 / 40) = 2, 不进位
	if orderBody["sz"] != "2" {
		t.Fatalf("sz got=%v want=2", orderBody["sz"])
	}
}

func TestOpenPositionByPercentageNoBalance(t *testing.T) {
	orderCalls := 0
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case client.EndpointBalance:
			io.WriteString(w, okBody(`[{"details":[{"ccy":"USDT","availBal":"0"}]}]`))
		case client.EndpointPlaceOrder:
			orderCalls++
			io.WriteString(w, okBody(`[]`))
		}
	})

	resp := o.OpenPositionByPercentage(OrderIntent{InstID: "BTC-USDT-SWAP", Side: "buy"}, 25, 50, 10)
	if resp.IsOK() {
		t.Fatal("expected failure")
	}
	if resp.Msg != "No available balance" {
		t.Fatalf("msg got=%q", resp.Msg)
	}
	if orderCalls != 0 {
		t.Fatal("no order may be placed without balance")
	}
}

func TestOpenPositionByPercentageBadInputs(t *testing.T) {
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, okBody(`[{"details":[{"ccy":"USDT","availBal":"1000"}]}]`))
	})

	if resp := o.OpenPositionByPercentage(OrderIntent{}, 25, 0, 10); resp.IsOK() {
		t.Fatal("zero price must fail")
	}
	if resp := o.OpenPositionByPercentage(OrderIntent{}, 15, 50, 10); resp.IsOK() {
		t.Fatal("invalid preset must fail")
	}
}

func TestPlaceConditionalOrder(t *testing.T) {
	var body map[string]any
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != client.EndpointPlaceAlgoOrder {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body = readJSON(t, r)
		io.WriteString(w, okBody(`[{"algoId":"a1","sCode":"0"}]`))
	})

	resp := o.PlaceConditionalOrder(OrderIntent{
		InstID:      "BTC-USDT-SWAP",
		Side:        "buy",
		TdMode:      "cross",
		Sz:          "5",
		SlTriggerPx: "40000",
	}, "60000", "")

	if !resp.IsOK() {
		t.Fatalf("unexpected failure: %+v", resp)
	}
	if body["triggerPx"] != "60000" {
		t.Fatalf("triggerPx got=%v", body["triggerPx"])
	}
	// 未指定委托价时按市价执行
	if body["orderPx"] != "-1" {
		t.Fatalf("orderPx got=%v want=-1", body["orderPx"])
	}
	if body["slTriggerPx"] != "40000" || body["slOrdPx"] != "-1" {
		t.Fatalf("attached stop got=%v", body)
	}
	if _, present := body["tpTriggerPx"]; present {
		t.Fatal("unset tp trigger must not be transmitted")
	}
}

func TestCloseAllPositions(t *testing.T) {
	var orders []map[string]any
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case client.EndpointPositions:
			io.WriteString(w, okBody(`[
				{"instId":"BTC-USDT-SWAP","posSide":"long","pos":"2","availPos":"2","mgnMode":"cross"},
				{"instId":"ETH-USDT-SWAP","posSide":"short","pos":"5","availPos":"5","mgnMode":"isolated"},
				{"instId":"SOL-USDT-SWAP","posSide":"long","pos":"0","availPos":"0","mgnMode":"cross"},
				{"instId":"XRP-USDT-SWAP","posSide":"net","pos":"-3","availPos":"3","mgnMode":"cross"}
			]`))
		case client.EndpointPlaceOrder:
			orders = append(orders, readJSON(t, r))
			io.WriteString(w, okBody(`[{"ordId":"c1","sCode":"0"}]`))
		}
	})

	resp := o.CloseAllPositions("SWAP")
	if !resp.IsOK() {
		t.Fatalf("unexpected failure: %+v", resp)
	}
	// availPos 为 0 的仓位跳过
	if len(orders) != 3 {
		t.Fatalf("close orders got=%d want=3", len(orders))
	}

	bySide := map[string]string{}
	for _, ord := range orders {
		bySide[ord["instId"].(string)] = ord["side"].(string)
		if ord["reduceOnly"] != "true" {
			t.Fatalf("close order must be reduce-only: %v", ord)
		}
		if ord["ordType"] != "market" {
			t.Fatalf("close order must be market: %v", ord)
		}
	}
	if bySide["BTC-USDT-SWAP"] != "sell" {
		t.Error("long closes with sell")
	}
	if bySide["ETH-USDT-SWAP"] != "buy" {
		t.Error("short closes with buy")
	}
	// net 模式按持仓数量符号定方向
	if bySide["XRP-USDT-SWAP"] != "buy" {
		t.Error("negative net position closes with buy")
	}

	var result CloseAllResult
	if err := resp.DataInto(&result); err != nil {
		t.Fatalf("result payload: %v", err)
	}
	if result.SuccessCount != 3 || result.FailedCount != 0 {
		t.Fatalf("counts got success=%d failed=%d", result.SuccessCount, result.FailedCount)
	}
	if resp.Msg != "Closed 3 positions, 0 failed" {
		t.Fatalf("msg got=%q", resp.Msg)
	}
}

func TestCloseAllPositionsPartialFailure(t *testing.T) {
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case client.EndpointPositions:
			io.WriteString(w, okBody(`[
				{"instId":"BTC-USDT-SWAP","posSide":"long","pos":"2","availPos":"2","mgnMode":"cross"},
				{"instId":"ETH-USDT-SWAP","posSide":"short","pos":"5","availPos":"5","mgnMode":"cross"}
			]`))
		case client.EndpointPlaceOrder:
			body := readJSON(t, r)
			if body["instId"] == "ETH-USDT-SWAP" {
				io.WriteString(w, `{"code":"51400","msg":"order rejected","data":[]}`)
				return
			}
			io.WriteString(w, okBody(`[{"ordId":"c1","sCode":"0"}]`))
		}
	})

	resp := o.CloseAllPositions("SWAP")
	var result CloseAllResult
	if err := resp.DataInto(&result); err != nil {
		t.Fatalf("result payload: %v", err)
	}
	// 单个失败不阻断其余仓位
	if result.SuccessCount != 1 || result.FailedCount != 1 {
		t.Fatalf("counts got success=%d failed=%d", result.SuccessCount, result.FailedCount)
	}
	for _, r := range result.Results {
		if r.InstID == "ETH-USDT-SWAP" && r.Status != "failed" {
			t.Fatalf("failed close not recorded: %+v", r)
		}
	}
}

func TestCloseAllPositionsFetchFailurePassesThrough(t *testing.T) {
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"code":"50011","msg":"rate limited","data":[]}`)
	})
	resp := o.CloseAllPositions("SWAP")
	if resp.Code != "50011" {
		t.Fatalf("positions failure must pass through, got %+v", resp)
	}
}
