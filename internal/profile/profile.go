// Package profile provisions a fresh, disposable Firefox profile directory
// per browser worker: an embedded user.js preference file plus a
// dynamically reserved Marionette port appended to it.
package profile

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

//go:embed user.js
var userJS []byte

const dirPrefix = "pantin-moz-profile"

// Profile is a freshly created temp directory containing a user.js that
// pins Firefox's Marionette server to a dynamically chosen local port.
type Profile struct {
	dir            string
	marionetteAddr string
}

// New provisions a new profile: creates the temp directory, reserves a free
// local port, and writes user.js with that port appended.
func New() (*Profile, error) {
	dir, err := os.MkdirTemp("", dirPrefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("profile: create temporary directory: %w", err)
	}
	log.Debug().Str("path", dir).Msg("created profile directory")

	addr, err := freeLocalAddress()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("profile: get a free local address: %w", err)
	}

	if err := writeUserJS(dir, addr); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	return &Profile{dir: dir, marionetteAddr: addr}, nil
}

// MarionetteAddress is the "host:port" the Marionette client should dial.
func (p *Profile) MarionetteAddress() string {
	return p.marionetteAddr
}

// Path is the filesystem path of the profile directory.
func (p *Profile) Path() string {
	return p.dir
}

// Exists reports whether the profile directory is still present.
func (p *Profile) Exists() bool {
	_, err := os.Stat(p.dir)
	return err == nil
}

// Remove deletes the profile directory. Removal failure is surfaced, never
// silently ignored.
func (p *Profile) Remove() error {
	log.Debug().Str("path", p.dir).Msg("removing profile directory")
	if err := os.RemoveAll(p.dir); err != nil {
		return fmt.Errorf("profile: remove temporary directory: %w", err)
	}
	return nil
}

// freeLocalAddress binds a TCP listener on 127.0.0.1:0, reads back the
// OS-assigned port, then closes the listener. This is a deliberate TOCTOU:
// collisions are vanishingly rare on loopback, and a race produces a clean
// spawn failure surfaced upward rather than a silent hang.
func freeLocalAddress() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer ln.Close()
	return ln.Addr().String(), nil
}

func writeUserJS(dir, marionetteAddr string) error {
	_, port, err := net.SplitHostPort(marionetteAddr)
	if err != nil {
		return fmt.Errorf("profile: parse marionette address: %w", err)
	}

	pref := fmt.Sprintf("user_pref(\"marionette.port\", %s);\n", port)
	data := append(append([]byte{}, userJS...), []byte(pref)...)

	path := filepath.Join(dir, "user.js")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("profile: create user.js file: %w", err)
	}
	return nil
}
