package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/betbot/goperp/internal/domain"
	"github.com/betbot/goperp/okx/signing"
	"github.com/betbot/goperp/okx/transport"
	"github.com/betbot/goperp/okx/types"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	chain := transport.NewChain(srv.URL, []transport.Route{
		{Name: "direct", Kind: transport.RouteKindDirect, Timeout: 2 * time.Second},
	}, transport.WithRetries(0), transport.WithEscalationDelay(0))

	creds := signing.Credentials{APIKey: "id", Secret: "sec", Passphrase: "pp"}
	return New(creds, chain, nil), srv
}

func TestClient_SignedRequestCarriesAuthHeaders(t *testing.T) {
	var gotKey, gotSign, gotTS, gotPP string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(signing.HeaderAPIKey)
		gotSign = r.Header.Get(signing.HeaderSign)
		gotTS = r.Header.Get(signing.HeaderTimestamp)
		gotPP = r.Header.Get(signing.HeaderPassphrase)
		w.Write([]byte(`{"code":"0","msg":"","data":[{"ccy":"USDT","totalEq":"1000","details":[{"ccy":"USDT","availBal":"900","eq":"1000"}]}]}`))
	})

	if _, err := c.Balance(context.Background(), "USDT"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotKey != "id" || gotPP != "pp" {
		t.Fatalf("auth headers missing: key=%q pp=%q", gotKey, gotPP)
	}
	if gotSign == "" || gotTS == "" {
		t.Fatalf("signature headers missing")
	}
}

func TestClient_BalanceParsed(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ccy") != "USDT" {
			t.Errorf("ccy param missing")
		}
		w.Write([]byte(`{"code":"0","msg":"","data":[{"totalEq":"12345.6","details":[{"ccy":"USDT","eq":"12345.6","availBal":"10000","frozenBal":"0"}]}]}`))
	})

	bal, err := c.Balance(context.Background(), "USDT")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if bal.TotalEq != "12345.6" {
		t.Fatalf("unexpected totalEq: %s", bal.TotalEq)
	}
	if len(bal.Details) != 1 || bal.Details[0].AvailBal != "10000" {
		t.Fatalf("details not parsed: %+v", bal.Details)
	}
}

func TestClient_BusinessRejectionCarriesRemediation(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"1","msg":"Operation failed","data":[{"ordId":"","clOrdId":"x","sCode":"51008","sMsg":"Order failed. Insufficient balance"}]}`))
	})

	_, _, err := c.PlaceOrder(context.Background(), &types.PlaceOrderRequest{
		InstID: "BTC-USDT-SWAP", TdMode: "cross", Side: "buy", OrdType: "market", Sz: "1",
	})
	if err == nil {
		t.Fatalf("expected business rejection")
	}
	ee, ok := err.(*domain.ExecError)
	if !ok {
		t.Fatalf("expected *domain.ExecError, got %T: %v", err, err)
	}
	if ee.Kind != domain.ErrKindBusiness {
		t.Fatalf("unexpected kind: %v", ee.Kind)
	}
	if ee.Code != "51008" {
		t.Fatalf("expected per-order sCode, got %q", ee.Code)
	}
	if ee.Hint == "" {
		t.Fatalf("known code should carry a remediation hint")
	}
}

func TestClient_AuthFatalClassified(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"50111","msg":"Invalid OK-ACCESS-KEY","data":[]}`))
	})

	_, err := c.Positions(context.Background())
	if err == nil {
		t.Fatalf("expected auth error")
	}
	if domain.KindOf(err) != domain.ErrKindAuthFatal {
		t.Fatalf("expected auth-fatal, got %v (%v)", domain.KindOf(err), err)
	}
}

func TestClient_BatchPartialSuccess(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		// 第一单成功、第二单被拒：整体 code 非零，但逐条结果都在 data 里
		w.Write([]byte(`{"code":"2","msg":"Partial success","data":[
			{"ordId":"1001","clOrdId":"a","sCode":"0","sMsg":""},
			{"ordId":"","clOrdId":"b","sCode":"51020","sMsg":"Order size below the minimum"}
		]}`))
	})

	items, _, err := c.PlaceBatchOrders(context.Background(), []*types.PlaceOrderRequest{
		{InstID: "BTC-USDT-SWAP", TdMode: "cross", Side: "buy", OrdType: "market", Sz: "1", ClOrdID: "a"},
		{InstID: "ETH-USDT-SWAP", TdMode: "cross", Side: "buy", OrdType: "market", Sz: "0.0001", ClOrdID: "b"},
	})
	if err != nil && len(items) == 0 {
		t.Fatalf("partial success must yield per-order results, got err=%v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 per-order results, got %d", len(items))
	}
	if items[0].SCode != "0" || items[1].SCode != "51020" {
		t.Fatalf("per-order codes not preserved: %+v", items)
	}
}

func TestClient_BatchOverLimitRejectedLocally(t *testing.T) {
	var hits int
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"code":"0","data":[]}`))
	})

	reqs := make([]*types.PlaceOrderRequest, MaxBatchOrders+1)
	for i := range reqs {
		reqs[i] = &types.PlaceOrderRequest{InstID: "BTC-USDT-SWAP", Sz: "1"}
	}
	if _, _, err := c.PlaceBatchOrders(context.Background(), reqs); err == nil {
		t.Fatalf("expected local rejection over batch limit")
	}
	if hits != 0 {
		t.Fatalf("over-limit batch must not hit the network, hits=%d", hits)
	}
}

func TestClient_LeverageInfoParsed(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"0","data":[{"instId":"BTC-USDT-SWAP","mgnMode":"cross","lever":"10"}]}`))
	})
	lever, err := c.LeverageInfo(context.Background(), "BTC-USDT-SWAP", "cross")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if lever != 10 {
		t.Fatalf("expected lever 10, got %d", lever)
	}
}
