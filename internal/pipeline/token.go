package pipeline

import (
	"context"

	"payrouter/pkg/connectors"
)

func requiresAccessToken(v any) bool {
	td, ok := v.(connectors.TokenDependent)
	return ok && td.RequiresAccessToken()
}

// acquireAccessToken fills data.AccessToken through the AccessTokenAuth flow.
// It calls run directly, so a token exchange never triggers another one.
// Failures leave the token absent and the attempt continues.
func acquireAccessToken[Req, Resp any](ctx context.Context, e *Executor, data *connectors.RouterData[Req, Resp]) {
	if data.AccessToken != nil && !data.AccessToken.Expired(e.now()) {
		return
	}
	data.AccessToken = nil
	log := e.log.With("connector", data.Connector, "flow", data.Flow, "attempt_id", data.AttemptID)

	integration, err := connectors.Lookup(e.registry, data.Connector, connectors.AccessTokenAuth)
	if err != nil {
		log.Warnw("access token lookup", "err", err)
		return
	}
	req, err := connectors.AccessTokenRequestFromAuth(data.AuthType)
	if err != nil {
		log.Warnw("access token credentials", "err", err)
		return
	}
	tokenData := connectors.Derive[connectors.AccessTokenRequestData, connectors.AccessToken](data, connectors.FlowAccessTokenAuth, req)
	out, err := run(ctx, e, connectors.AccessTokenAuth, integration, tokenData)
	if err != nil {
		log.Warnw("access token exchange failed", "err", err)
		return
	}
	if !out.Response.Ok() {
		log.Warnw("access token rejected", "code", out.Response.Err.Code, "status_code", out.Response.Err.StatusCode)
		return
	}
	data.AccessToken = out.Response.Value
}
