package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/kartvelo/kartvelo-backend/api/responses"
	"github.com/kartvelo/kartvelo-backend/internal/payments"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/ipay"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
)

type callbackService interface {
	HandleCallback(ctx context.Context, raw []byte) (*payments.CallbackResult, error)
}

type signatureVerifier interface {
	Verify(rawBody []byte, signatureB64 string) bool
}

// IPayCallback handles gateway payment notifications. The signature is
// checked against the raw body before anything is parsed; an unverifiable
// delivery is rejected outright. Failed reconciliation returns an error
// status so the gateway redelivers.
func IPayCallback(svc callbackService, verifier signatureVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "callback service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "signature verifier unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(ipay.SignatureHeader)
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "callback signature missing"))
			return
		}
		if !verifier.Verify(payload, sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "callback signature invalid"))
			return
		}

		result, err := svc.HandleCallback(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			fields := map[string]any{
				"applied":   result.Applied,
				"duplicate": result.Duplicate,
				"status":    string(result.Status),
			}
			logCtx := logg.WithOrderNumber(ctx, result.OrderNumber)
			logCtx = logg.WithFields(logCtx, fields)
			logg.Info(logCtx, "payment callback processed")
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
