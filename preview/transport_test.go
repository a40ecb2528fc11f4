package preview

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/discard"
	stdopentracing "github.com/opentracing/opentracing-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Qalifah/flowpreview/inmem"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/sqlite"
)

func newEndpoints(s Service) Set {
	return NewSet(s, DefaultLimits, log.NewNopLogger(), discard.NewHistogram(), stdopentracing.NoopTracer{}, nil)
}

func TestHTTPModalSplitReport(t *testing.T) {
	h := MakeHandler(newEndpoints(newScenario(t, singleFeeder()).service()), stdopentracing.NoopTracer{}, log.NewNopLogger())
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/preview/v1/modal-split")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != singleFeederReport {
		t.Fatalf("unexpected body:\n%s", body)
	}
}

func TestHTTPModalSplitJSON(t *testing.T) {
	h := MakeHandler(newEndpoints(newScenario(t, singleFeeder()).service()), stdopentracing.NoopTracer{}, log.NewNopLogger())
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/preview/v1/modal-split.json")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		ModalSplit struct {
			Inbound       map[string]float64 `json:"inbound_capacity"`
			Transshipment float64            `json:"transshipment"`
			Hinterland    float64            `json:"hinterland"`
		} `json:"modal_split"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ModalSplit.Transshipment != 90 || body.ModalSplit.Hinterland != 270 {
		t.Fatalf("unexpected totals: %+v", body.ModalSplit)
	}
	if body.ModalSplit.Inbound[mode.Feeder.String()] != 300 {
		t.Fatalf("inbound keyed by mode name expected, got %v", body.ModalSplit.Inbound)
	}
}

func TestHTTPNotConfigured(t *testing.T) {
	s := NewService(NewInputs(inmem.NewScheduleRepository(), inmem.NewWindowRepository(), inmem.NewDistributionRepository()))
	srv := httptest.NewServer(MakeHandler(newEndpoints(s), stdopentracing.NoopTracer{}, log.NewNopLogger()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/preview/v1/modal-split")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("missing error message: %v", body)
	}
}

func dialPreview(t *testing.T, s Service) Service {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterPreviewServer(server, NewGRPCServer(newEndpoints(s), stdopentracing.NoopTracer{}, nil, log.NewNopLogger()))
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewGRPCClient(conn, stdopentracing.NoopTracer{}, nil, log.NewNopLogger())
}

func TestGRPCRoundTrip(t *testing.T) {
	client := dialPreview(t, newScenario(t, singleFeeder()).service())

	text, err := client.ModalSplitReport(context.Background())
	if err != nil {
		t.Fatalf("ModalSplitReport: %v", err)
	}
	if text != singleFeederReport {
		t.Fatalf("unexpected report:\n%s", text)
	}

	res, err := client.ModalSplit(context.Background())
	if err != nil {
		t.Fatalf("ModalSplit: %v", err)
	}
	if res.Transshipment != 90 || res.Hinterland != 270 {
		t.Fatalf("unexpected totals: %+v", res)
	}
	if res.OutboundSplit.Train != 120 || res.InboundSplit.Truck != 60 {
		t.Fatalf("unexpected splits: %+v", res)
	}
	if res.Flow[mode.Feeder][mode.DeepSeaVessel] != 45 {
		t.Fatalf("feeder to deep sea = %v, want 45", res.Flow[mode.Feeder][mode.DeepSeaVessel])
	}
}

func TestGRPCNotConfigured(t *testing.T) {
	s := NewService(NewInputs(inmem.NewScheduleRepository(), inmem.NewWindowRepository(), inmem.NewDistributionRepository()))
	client := dialPreview(t, s)
	_, err := client.ModalSplitReport(context.Background())
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("code = %v, want FailedPrecondition (err %v)", status.Code(err), err)
	}
}

func TestNoCurrentDatabase(t *testing.T) {
	repo := sqlite.NewCurrentStore(sqlite.NewChooser(t.TempDir(), log.NewNopLogger()))
	s := NewService(NewInputs(repo, repo, repo))

	srv := httptest.NewServer(MakeHandler(newEndpoints(s), stdopentracing.NoopTracer{}, log.NewNopLogger()))
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/preview/v1/modal-split.json")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}

	_, err = dialPreview(t, s).ModalSplit(context.Background())
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("code = %v, want FailedPrecondition (err %v)", status.Code(err), err)
	}
}
