package security

import "crypto/subtle"

const (
	PermOrdersRead  = "orders.read"
	PermOrdersWrite = "orders.write"
)

// Staff clients allowed to request tokens.
type Client struct {
	ID      string
	Secret  string
	Perms   []string
	Enabled bool
}

type Registry map[string]Client

var Clients = Registry{
	"kitchen-display": {ID: "kitchen-display", Secret: "kitchen-secret", Perms: []string{PermOrdersRead, PermOrdersWrite}, Enabled: true},
	"front-desk":      {ID: "front-desk", Secret: "front-desk-secret", Perms: []string{PermOrdersRead}, Enabled: true},
	"courier-app":     {ID: "courier-app", Secret: "courier-secret", Perms: []string{PermOrdersRead}, Enabled: false},
}

// Authenticate returns the enabled client matching id and secret.
func (r Registry) Authenticate(id, secret string) (Client, bool) {
	cl, ok := r[id]
	if !ok || !cl.Enabled {
		return Client{}, false
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(cl.Secret)) != 1 {
		return Client{}, false
	}
	return cl, true
}
