// Package credentials produces login material for provisioned
// containers.
package credentials

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Templates ship with this account preconfigured.
	defaultUsername = "root"
	defaultPassword = "Admin00$$"

	passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"
	passwordLength  = 12
)

// Credentials is the login material handed to the requesting user.
type Credentials struct {
	Hostname string
	// Address is empty when discovery could not find one yet.
	Address  string
	Username string
	Password string
	// SSHKey is reserved; no key material is generated. Capability
	// gap, not a bug.
	SSHKey string
}

// AddressFinder locates a container's address; satisfied by
// discovery.Discoverer.
type AddressFinder interface {
	Discover(ctx context.Context, node string, vmid int) (string, bool)
}

// Generator builds credentials for newly provisioned containers.
type Generator struct {
	finder AddressFinder
}

// New creates a Generator. finder may be nil when address lookup is
// not wanted.
func New(finder AddressFinder) *Generator {
	return &Generator{finder: finder}
}

// Generate returns the credentials for a cloned container: the
// requested name as hostname and the template's well-known login.
// The address is discovered when both node and vmid are known,
// otherwise left empty.
func (g *Generator) Generate(ctx context.Context, name, node string, vmid int) Credentials {
	creds := Credentials{
		Hostname: name,
		Username: defaultUsername,
		Password: defaultPassword,
	}
	if g.finder != nil && node != "" && vmid != 0 {
		if addr, ok := g.finder.Discover(ctx, node, vmid); ok {
			creds.Address = addr
		}
	}
	return creds
}

// RandomPassword generates a fresh password for from-scratch
// provisioning: letters, digits and a small symbol set at a fixed
// length.
func RandomPassword() (string, error) {
	buf := make([]byte, passwordLength)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw password char: %w", err)
		}
		buf[i] = passwordCharset[n.Int64()]
	}
	return string(buf), nil
}
