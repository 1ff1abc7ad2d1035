// Package auth drives the phone-registration workflow over an established
// session: handshake, START_AUTH, CHECK_CODE and REGISTER exchanges.
//
// The server moves fields between the response root and its "payload"
// sub-map between versions, so every lookup probes both locations.
package auth

import (
	"context"
	"errors"

	"github.com/minisock/onemectl/internal/config"
	"github.com/minisock/onemectl/internal/protocol"
	"github.com/minisock/onemectl/internal/protocol/payload"
)

var (
	ErrNoAuthToken     = errors.New("auth: no auth token in response")
	ErrNoRegisterToken = errors.New("auth: no register token in response")
)

// Requester is the session surface the workflow needs.
type Requester interface {
	Request(ctx context.Context, opcode uint16, body payload.Value) (payload.Value, error)
}

// Flow drives registration for one device profile.
type Flow struct {
	rq  Requester
	dev config.DeviceConfig
}

func NewFlow(rq Requester, dev config.DeviceConfig) *Flow {
	return &Flow{rq: rq, dev: dev}
}

// Handshake announces the device profile (opcode 6) and returns the raw
// response for callers that want session details.
func (f *Flow) Handshake(ctx context.Context) (payload.Value, error) {
	resp, err := f.rq.Request(ctx, protocol.OpHandshake, HandshakePayload(f.dev))
	if err != nil {
		return payload.Nil(), err
	}
	if appErr := ResponseError(resp); appErr != nil {
		return resp, appErr
	}
	return resp, nil
}

// StartAuth requests a verification code for phone and returns the temporary
// token the code must be verified against.
func (f *Flow) StartAuth(ctx context.Context, phone string) (string, error) {
	body := payload.MapValue(payload.NewMap().
		SetString("type", payload.String("START_AUTH")).
		SetString("phone", payload.String(phone)))
	resp, err := f.rq.Request(ctx, protocol.OpAuthStart, body)
	if err != nil {
		return "", err
	}
	if appErr := ResponseError(resp); appErr != nil {
		return "", appErr
	}
	token, ok := AuthToken(resp)
	if !ok {
		return "", ErrNoAuthToken
	}
	return token, nil
}

// VerifyCode exchanges the received verification code for a register token.
func (f *Flow) VerifyCode(ctx context.Context, token, code string) (string, error) {
	body := payload.MapValue(payload.NewMap().
		SetString("verifyCode", payload.String(code)).
		SetString("token", payload.String(token)).
		SetString("authTokenType", payload.String("CHECK_CODE")))
	resp, err := f.rq.Request(ctx, protocol.OpAuthCheckCode, body)
	if err != nil {
		return "", err
	}
	if appErr := ResponseError(resp); appErr != nil {
		return "", appErr
	}
	regToken, ok := RegisterToken(resp)
	if !ok {
		return "", ErrNoRegisterToken
	}
	return regToken, nil
}

// Register finishes registration under the given name and returns the
// long-lived auth token.
func (f *Flow) Register(ctx context.Context, regToken, firstName, lastName string) (string, error) {
	body := payload.MapValue(payload.NewMap().
		SetString("lastName", payload.String(lastName)).
		SetString("token", payload.String(regToken)).
		SetString("firstName", payload.String(firstName)).
		SetString("tokenType", payload.String("REGISTER")))
	resp, err := f.rq.Request(ctx, protocol.OpAuthRegister, body)
	if err != nil {
		return "", err
	}
	if appErr := ResponseError(resp); appErr != nil {
		return "", appErr
	}
	token, ok := AuthToken(resp)
	if !ok {
		return "", ErrNoAuthToken
	}
	return token, nil
}

// HandshakePayload builds the opcode 6 body from the device profile.
func HandshakePayload(dev config.DeviceConfig) payload.Value {
	ua := payload.NewMap().
		SetString("deviceType", payload.String(dev.DeviceType)).
		SetString("appVersion", payload.String(dev.AppVersion)).
		SetString("osVersion", payload.String(dev.OSVersion)).
		SetString("timezone", payload.String(dev.Timezone)).
		SetString("screen", payload.String(dev.Screen)).
		SetString("pushDeviceType", payload.String(dev.PushDeviceType)).
		SetString("arch", payload.String(dev.Arch)).
		SetString("locale", payload.String(dev.Locale)).
		SetString("buildNumber", payload.Int(dev.BuildNumber)).
		SetString("deviceName", payload.String(dev.DeviceName)).
		SetString("deviceLocale", payload.String(dev.DeviceLocale))
	return payload.MapValue(payload.NewMap().
		SetString("mt_instanceid", payload.String(dev.InstanceID)).
		SetString("userAgent", payload.MapValue(ua)).
		SetString("clientSessionId", payload.Int(dev.ClientSessionID)).
		SetString("deviceId", payload.String(dev.DeviceID)))
}

// innerPayload returns resp["payload"] when present, else resp itself.
func innerPayload(resp payload.Value) (*payload.Map, bool) {
	m, ok := resp.AsMap()
	if !ok {
		return nil, false
	}
	if inner, found := m.GetString("payload"); found {
		if im, isMap := inner.AsMap(); isMap {
			return im, true
		}
	}
	return m, true
}

// AuthToken probes payload.token, then the response root.
func AuthToken(resp payload.Value) (string, bool) {
	if m, ok := innerPayload(resp); ok {
		if v, found := m.GetString("token"); found {
			if s, isStr := v.AsString(); isStr && s != "" {
				return s, true
			}
		}
	}
	if root, ok := resp.AsMap(); ok {
		if v, found := root.GetString("token"); found {
			if s, isStr := v.AsString(); isStr && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// RegisterToken probes tokenAttrs.REGISTER.token under payload, then under
// the response root.
func RegisterToken(resp payload.Value) (string, bool) {
	candidates := make([]*payload.Map, 0, 2)
	if m, ok := innerPayload(resp); ok {
		candidates = append(candidates, m)
	}
	if root, ok := resp.AsMap(); ok {
		candidates = append(candidates, root)
	}
	for _, m := range candidates {
		attrs, found := m.GetString("tokenAttrs")
		if !found {
			continue
		}
		am, isMap := attrs.AsMap()
		if !isMap {
			continue
		}
		reg, found := am.GetString("REGISTER")
		if !found {
			continue
		}
		rm, isMap := reg.AsMap()
		if !isMap {
			continue
		}
		if v, found := rm.GetString("token"); found {
			if s, isStr := v.AsString(); isStr && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// ResponseError extracts a server error field as *protocol.AppError, or nil
// when the response carries none. The field is either a bare string code or
// a map with code and message details.
func ResponseError(resp payload.Value) *protocol.AppError {
	m, ok := innerPayload(resp)
	if !ok {
		return nil
	}
	ev, found := m.GetString("error")
	if !found {
		return nil
	}
	if s, isStr := ev.AsString(); isStr {
		if s == "" {
			return nil
		}
		return &protocol.AppError{Code: s}
	}
	em, isMap := ev.AsMap()
	if !isMap {
		return nil
	}
	appErr := &protocol.AppError{}
	if v, found := em.GetString("error"); found {
		appErr.Code, _ = v.AsString()
	}
	for _, key := range []string{"message", "localizedMessage"} {
		if v, found := em.GetString(key); found {
			if s, isStr := v.AsString(); isStr && s != "" {
				appErr.Message = s
				break
			}
		}
	}
	if appErr.Code == "" && appErr.Message == "" {
		return nil
	}
	return appErr
}
