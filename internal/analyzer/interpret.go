package analyzer

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/webclient"
	"github.com/tidwall/gjson"
)

// Interpret maps one HTTP response onto an Outcome:
//
//	504, or any body whose "error" mentions a timeout → Failed(ErrServerTimeout)
//	other non-2xx                                     → Failed(*model.StatusError)
//	2xx with an empty body or the JSON string ""      → Pending
//	2xx with an analysis document                     → Ready
//	anything else                                     → Failed(ErrMalformedPayload)
func Interpret(resp *webclient.Response) model.Outcome {
	if resp == nil {
		return model.Failed(fmt.Errorf("%w: nil response", model.ErrTransport))
	}
	body := bytes.TrimSpace(resp.Body)
	message := serverMessage(body)

	if resp.StatusCode == http.StatusGatewayTimeout || isTimeoutMessage(message) {
		return model.Failed(fmt.Errorf("%w: status %d: %s", model.ErrServerTimeout, resp.StatusCode, message))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Failed(&model.StatusError{StatusCode: resp.StatusCode, Message: message})
	}
	if isPendingBody(body) {
		return model.Pending()
	}

	payload, err := model.ParsePayload(body)
	if err != nil {
		return model.Failed(err)
	}
	return model.Ready(payload)
}

func isPendingBody(body []byte) bool {
	return len(body) == 0 || string(body) == `""`
}

// serverMessage extracts {"error": "..."} when present.
func serverMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, "error").String()
}

func isTimeoutMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout")
}
