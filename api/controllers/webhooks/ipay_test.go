package webhooks

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kartvelo/kartvelo-backend/internal/payments"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/ipay"
)

type fakeCallbackService struct {
	calls  int
	result *payments.CallbackResult
	err    error
}

func (f *fakeCallbackService) HandleCallback(ctx context.Context, raw []byte) (*payments.CallbackResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &payments.CallbackResult{OrderNumber: "AB12CD34", Applied: true, Status: enums.PaymentStatusPaid}, nil
}

type callbackKeys struct {
	private  *rsa.PrivateKey
	verifier *ipay.Verifier
}

func newCallbackKeys(t *testing.T) callbackKeys {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	verifier, err := ipay.NewVerifier(string(pubPEM))
	if err != nil {
		t.Fatalf("build verifier: %v", err)
	}
	return callbackKeys{private: key, verifier: verifier}
}

func (k callbackKeys) sign(t *testing.T, payload []byte) string {
	t.Helper()
	digest := sha256.Sum256(payload)
	signature, err := rsa.SignPKCS1v15(rand.Reader, k.private, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("sign payload: %v", err)
	}
	return base64.StdEncoding.EncodeToString(signature)
}

func postCallback(handler http.HandlerFunc, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(ipay.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIPayCallback_Success(t *testing.T) {
	keys := newCallbackKeys(t)
	service := &fakeCallbackService{}
	handler := IPayCallback(service, keys.verifier, nil)

	payload := []byte(`{"order_id":"AB12CD34","status":"completed"}`)
	rec := postCallback(handler, payload, keys.sign(t, payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}
}

func TestIPayCallback_MissingSignature(t *testing.T) {
	keys := newCallbackKeys(t)
	service := &fakeCallbackService{}
	handler := IPayCallback(service, keys.verifier, nil)

	rec := postCallback(handler, []byte(`{"order_id":"AB12CD34"}`), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service must not run without a signature")
	}
}

func TestIPayCallback_InvalidSignature(t *testing.T) {
	keys := newCallbackKeys(t)
	other := newCallbackKeys(t)
	service := &fakeCallbackService{}
	handler := IPayCallback(service, keys.verifier, nil)

	payload := []byte(`{"order_id":"AB12CD34","status":"completed"}`)
	rec := postCallback(handler, payload, other.sign(t, payload))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service must not run with a bad signature")
	}
}

func TestIPayCallback_TamperedBody(t *testing.T) {
	keys := newCallbackKeys(t)
	service := &fakeCallbackService{}
	handler := IPayCallback(service, keys.verifier, nil)

	signature := keys.sign(t, []byte(`{"order_id":"AB12CD34","status":"completed"}`))
	rec := postCallback(handler, []byte(`{"order_id":"AB12CD34","status":"refunded"}`), signature)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered body, got %d", rec.Code)
	}
}

func TestIPayCallback_ServiceFailureSignalsRetry(t *testing.T) {
	keys := newCallbackKeys(t)
	service := &fakeCallbackService{err: pkgerrors.New(pkgerrors.CodeDependency, "database down")}
	handler := IPayCallback(service, keys.verifier, nil)

	payload := []byte(`{"order_id":"AB12CD34","status":"completed"}`)
	rec := postCallback(handler, payload, keys.sign(t, payload))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 so the gateway redelivers, got %d", rec.Code)
	}
}
