package common

// AccessTokenHeaderName is the HTTP header used to carry the bearer access
// token on outbound requests.
const AccessTokenHeaderName = "Authorization"

// AccessTokenQueryParam carries the access token on websocket handshakes,
// where custom headers are not available to browser clients.
const AccessTokenQueryParam = "token"
