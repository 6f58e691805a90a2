package utils

import "context"

type contextKey string

func (c contextKey) String() string {
	return "credentials/" + string(c)
}

const ctxKeyDevice = contextKey("deviceKey")
const ctxKeySession = contextKey("sessionKey")
const ctxKeyProfile = contextKey("profileKey")

// DeviceIDToContext pushes a device id into the supplied context for easier propagation.
func DeviceIDToContext(ctx context.Context, deviceId string) context.Context {
	return context.WithValue(ctx, ctxKeyDevice, deviceId)
}

// DeviceIDFromContext obtains a device id being propagated through the context.
func DeviceIDFromContext(ctx context.Context) string {
	deviceID, ok := ctx.Value(ctxKeyDevice).(string)
	if !ok {
		return ""
	}

	return deviceID
}

// SessionIDToContext pushes a session id into the supplied context for easier propagation.
func SessionIDToContext(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySession, sessionID)
}

// SessionIDFromContext obtains a session id being propagated through the context.
func SessionIDFromContext(ctx context.Context) string {
	sessionID, ok := ctx.Value(ctxKeySession).(string)
	if !ok {
		return ""
	}

	return sessionID
}

// ProfileIDToContext pushes the authenticated profile id into the supplied context.
func ProfileIDToContext(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, ctxKeyProfile, profileID)
}

// ProfileIDFromContext obtains the authenticated profile id from the context.
func ProfileIDFromContext(ctx context.Context) string {
	profileID, ok := ctx.Value(ctxKeyProfile).(string)
	if !ok {
		return ""
	}

	return profileID
}
