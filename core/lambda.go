package core

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog/log"
)

// LambdaHandler serves POST /auth/login behind an API Gateway HTTP API.
type LambdaHandler struct {
	login *LoginService
}

func NewLambdaHandler(login *LoginService) *LambdaHandler {
	return &LambdaHandler{login: login}
}

// Handle is the function passed to lambda.Start.
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	logger := log.With().Str("route", "POST /auth/login").Logger()
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With().Str("request_id", lc.AwsRequestID).Logger()
	}
	ctx = logger.WithContext(ctx)

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			logger.Warn().Err(err).Msg("undecodable base64 body")
			decoded = nil
		}
		body = decoded
	}

	bundle, err := h.login.Login(ctx, decodeCredential(body))
	if err != nil {
		status, text := LoginStatus(err)
		return events.APIGatewayV2HTTPResponse{
			StatusCode: status,
			Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
			Body:       text,
		}, nil
	}

	payload, err := json.Marshal(bundle)
	if err != nil {
		status, text := LoginStatus(ErrAuthFailed)
		return events.APIGatewayV2HTTPResponse{StatusCode: status, Body: text}, nil
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}, nil
}

// decodeCredential parses a login body. Anything that is not a JSON object
// yields an empty Credential, which Login rejects as a bad request.
func decodeCredential(body []byte) Credential {
	var cred Credential
	if len(body) == 0 {
		return cred
	}
	if err := json.Unmarshal(body, &cred); err != nil {
		return Credential{}
	}
	return cred
}
